package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/planeta/qualitycheck/internal/model"
)

// ErrInvalidRange is returned for a malformed A1 range.
var ErrInvalidRange = errors.New("invalid A1 range")

// Range is a rectangular A1 range. Columns and rows are 1-based; a zero
// end is unbounded.
type Range struct {
	StartCol, StartRow int
	EndCol, EndRow     int
}

// ParseRange parses ranges such as "A2:T", "A1:L100" or "B3". An empty
// string selects the whole sheet.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{StartCol: 1, StartRow: 1}, nil
	}
	if i := strings.LastIndex(s, "!"); i >= 0 {
		s = s[i+1:]
	}

	from, to, hasEnd := strings.Cut(s, ":")
	startCol, startRow, err := parseRef(from)
	if err != nil {
		return Range{}, err
	}
	if startCol == 0 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	if startRow == 0 {
		startRow = 1
	}
	r := Range{StartCol: startCol, StartRow: startRow}
	if !hasEnd {
		r.EndCol, r.EndRow = startCol, startRow
		return r, nil
	}

	endCol, endRow, err := parseRef(to)
	if err != nil {
		return Range{}, err
	}
	if (endCol != 0 && endCol < startCol) || (endRow != 0 && endRow < startRow) {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	r.EndCol, r.EndRow = endCol, endRow
	return r, nil
}

// parseRef splits "AB12" into column 28 and row 12. Either part may be
// missing and is then zero.
func parseRef(ref string) (int, int, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	letters, digits := ref[:i], ref[i:]
	if letters == "" && digits == "" {
		return 0, 0, fmt.Errorf("%w: empty reference", ErrInvalidRange)
	}

	col := 0
	if letters != "" {
		n, err := excelize.ColumnNameToNumber(letters)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		col = n
	}
	row := 0
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("%w: row %q", ErrInvalidRange, digits)
		}
		row = n
	}
	return col, row, nil
}

// Apply cuts the range out of a grid that starts at A1. Like the Sheets
// API it drops trailing empty cells of each row and trailing empty rows.
func (r Range) Apply(grid [][]model.CellValue) []model.Row {
	var out []model.Row
	for i := r.StartRow - 1; i < len(grid); i++ {
		if r.EndRow != 0 && i >= r.EndRow {
			break
		}
		src := grid[i]
		var row model.Row
		if r.StartCol-1 < len(src) {
			end := len(src)
			if r.EndCol != 0 && r.EndCol < end {
				end = r.EndCol
			}
			row = append(model.Row(nil), src[r.StartCol-1:end]...)
		}
		out = append(out, trimRow(row))
	}

	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func trimRow(row model.Row) model.Row {
	n := len(row)
	for n > 0 && row[n-1].IsEmpty() {
		n--
	}
	return row[:n]
}
