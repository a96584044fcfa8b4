package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/planeta/qualitycheck/internal/cell"
	"github.com/planeta/qualitycheck/internal/model"
)

// ErrUnknownSheetKind is returned by New for a kind without a rule set.
var ErrUnknownSheetKind = errors.New("unknown sheet kind")

// RowValidator produces the findings for one data row.
// rowIndex is the zero-based position of the row in Sheet.Rows; the header
// is index 0, so data rows start at 1.
type RowValidator interface {
	ValidateRow(rowIndex int, row model.Row) []model.Finding
}

// Auditor validates a whole sheet.
type Auditor interface {
	Validate() []model.Finding
}

// Sheet is the input of a validator: the rows read from the data source
// (header first) and the identity needed to build cell links.
type Sheet struct {
	// Name is the tab name, used as Finding.SheetName.
	Name string

	// SpreadsheetID is the document the tab belongs to.
	SpreadsheetID string

	// SheetID is the numeric gid of the tab.
	SheetID int64

	// Rows holds the header row followed by data rows.
	Rows []model.Row

	// Required lists the columns that must exist in the header.
	Required []string
}

// Header returns the first row, or nil for an empty sheet.
func (s *Sheet) Header() model.Row {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// Option configures a validator.
type Option func(*base)

// WithClock sets the function used to determine "today".
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// base carries what every rule set needs: the sheet, the column map and
// a link builder.
type base struct {
	sheet *Sheet
	cols  *cell.Accessor
	links cell.LinkBuilder
	now   func() time.Time
}

func newBase(sheet *Sheet, opts []Option) base {
	cols := cell.NewAccessor(sheet.Header(), sheet.Required)
	b := base{
		sheet: sheet,
		cols:  cols,
		links: cell.LinkBuilder{
			SpreadsheetID: sheet.SpreadsheetID,
			SheetID:       sheet.SheetID,
			Columns:       cols,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// get reads a trimmed cell by column name.
func (b *base) get(row model.Row, column string) model.CellValue {
	return b.cols.Get(row, column)
}

// str reads a trimmed cell by column name as text.
func (b *base) str(row model.Row, column string) string {
	return b.cols.String(row, column)
}

// today returns midnight of the current day.
func (b *base) today() time.Time {
	return cell.Today(b.now())
}

// isFuture reports whether the date is strictly after today.
func (b *base) isFuture(d time.Time) bool {
	return cell.StartOfDay(d).After(b.today())
}

// finding builds a Finding for the given sheet row. linkRow is the
// zero-based row passed to the link builder.
func (b *base) finding(rowNumber, linkRow int, column string, et model.ErrorType, description, admin string) model.Finding {
	return model.Finding{
		RowNumber:   rowNumber,
		Column:      column,
		ErrorType:   et,
		Description: description,
		CellLink:    b.links.Link(linkRow, column),
		SheetName:   b.sheet.Name,
		Admin:       admin,
	}
}

// adminOrUnknown returns the responsible person from a cell, or
// model.Unknown when the cell is blank.
func adminOrUnknown(v model.CellValue) string {
	if v.IsZero() {
		return model.Unknown
	}
	return v.String()
}

// Validate runs rv over every data row of sheet. An empty sheet yields no
// findings. If a required column is missing from the header, a single
// missing_column finding for the first such column is returned and no
// rows are scanned.
func Validate(sheet *Sheet, cols *cell.Accessor, rv RowValidator) []model.Finding {
	if len(sheet.Rows) == 0 {
		return nil
	}

	for _, col := range sheet.Required {
		if !cols.Has(col) {
			return []model.Finding{{
				RowNumber:   0,
				Column:      col,
				ErrorType:   model.ErrMissingColumn,
				Description: "Колонка не найдена",
				SheetName:   sheet.Name,
			}}
		}
	}

	var findings []model.Finding
	for i := 1; i < len(sheet.Rows); i++ {
		findings = append(findings, rv.ValidateRow(i, sheet.Rows[i])...)
	}
	return findings
}

// New returns the auditor for the given sheet kind.
func New(kind model.SheetKind, sheet *Sheet, opts ...Option) (Auditor, error) {
	switch kind {
	case model.SheetSales:
		return NewSales(sheet, opts...), nil
	case model.SheetTrainings:
		return NewTrainings(sheet, opts...), nil
	case model.SheetLeads:
		return NewLeads(sheet, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSheetKind, kind)
	}
}
