package cell

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/planeta/qualitycheck/internal/model"
)

// dateLayouts are tried in order against the last space-separated token of
// a text cell. Single-digit days and months are accepted.
var dateLayouts = []string{
	"2.1.2006",
	"2006-1-2",
	"2/1/2006",
}

// dayMonthLayout carries no year; the current year is substituted.
const dayMonthLayout = "2.1"

// ParseDate converts a cell to a calendar date in now's location.
//
// Numbers are spreadsheet serial dates: days since 1899-12-30, fractions
// meaning time of day. Text is reduced to the token after the last space
// (so "сб 01.11" reads as "01.11") and matched against DD.MM.YYYY,
// YYYY-MM-DD, DD/MM/YYYY and DD.MM. Empty, zero, boolean and unparseable
// cells report false.
func ParseDate(v model.CellValue, now time.Time) (time.Time, bool) {
	loc := now.Location()
	switch v.Kind() {
	case model.KindNumber:
		if v.Num() == 0 {
			return time.Time{}, false
		}
		// Calendar arithmetic in loc: the zone offset of 1899 may differ
		// from today's.
		days := math.Floor(v.Num())
		nanos := math.Round((v.Num() - days) * float64(24*time.Hour))
		return time.Date(1899, time.December, 30+int(days), 0, 0, 0, int(nanos), loc), true
	case model.KindText:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return time.Time{}, false
		}
		parts := strings.Split(s, " ")
		token := parts[len(parts)-1]
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, token); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
			}
		}
		if t, err := time.Parse(dayMonthLayout, token); err == nil {
			d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			if d.Day() != t.Day() {
				// 29.02 in a non-leap year
				return time.Time{}, false
			}
			return d, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Today returns midnight of now's calendar day.
func Today(now time.Time) time.Time {
	return StartOfDay(now)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// cleanNumber strips grouping spaces and percent signs and converts a
// decimal comma to a dot.
func cleanNumber(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "%", "")
	return strings.TrimSpace(s)
}

// ParseFloat converts a cell to a number. Numbers pass through; text such
// as "1 234,50" or "15%" is cleaned and parsed. Everything else is 0.
func ParseFloat(v model.CellValue) float64 {
	switch v.Kind() {
	case model.KindNumber:
		return v.Num()
	case model.KindText:
		f, err := strconv.ParseFloat(cleanNumber(v.Str()), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ParseDiscount converts a discount cell to a rate. Text containing "%" is
// divided by 100 ("50%" is 0.5); numbers and bare text pass through as is.
func ParseDiscount(v model.CellValue) float64 {
	if v.Kind() != model.KindText {
		return ParseFloat(v)
	}
	f, err := strconv.ParseFloat(cleanNumber(v.Str()), 64)
	if err != nil {
		return 0
	}
	if strings.Contains(v.Str(), "%") {
		return f / 100
	}
	return f
}

// ParseInt converts a counter cell to an integer. Blank cells count as 0.
// Fractional numbers are truncated. Non-numeric text reports false.
func ParseInt(v model.CellValue) (int, bool) {
	switch v.Kind() {
	case model.KindEmpty:
		return 0, true
	case model.KindNumber:
		return int(v.Num()), true
	case model.KindBool:
		if v.Boolean() {
			return 1, true
		}
		return 0, true
	default:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return 0, true
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

// ValidatePhone reports whether the cell holds a Russian mobile number:
// after dropping every non-digit, exactly 11 digits starting with 7.
func ValidatePhone(v model.CellValue) bool {
	if v.IsZero() {
		return false
	}
	var digits strings.Builder
	for _, r := range v.String() {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	return len(d) == 11 && d[0] == '7'
}

// FormatMoney renders an amount as "8 888,00": space-grouped thousands,
// decimal comma, two decimals.
func FormatMoney(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + frac
}

// FormatPercent renders a rate as a percentage with a decimal comma:
// 0.1 is "10,00%".
func FormatPercent(rate float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", rate*100), ".", ",", 1) + "%"
}

// IsTruthy reports whether a checkbox-like cell is set. Native booleans
// pass through; text is true for TRUE or ИСТИНА in any case.
func IsTruthy(v model.CellValue) bool {
	switch v.Kind() {
	case model.KindBool:
		return v.Boolean()
	case model.KindText:
		switch Lower(v.Str()) {
		case "true", "истина":
			return true
		}
		return false
	default:
		return false
	}
}

// Lower lowercases s with Russian casing rules.
// A new Caser is built per call since Casers are not safe for concurrent use.
func Lower(s string) string {
	return cases.Lower(language.Russian).String(s)
}

// ContainsFold reports whether substr occurs in s ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Lower(s), Lower(substr))
}
