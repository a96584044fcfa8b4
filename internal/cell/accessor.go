package cell

import (
	"fmt"
	"strconv"

	"github.com/planeta/qualitycheck/internal/model"
)

// Accessor maps header names to column indices and reads cells by name.
type Accessor struct {
	index map[string]int
}

// NewAccessor builds the column map for a sheet. Required columns are
// resolved first, at the position of their first occurrence in the header.
// Every other header is then added under its own name unless already known.
func NewAccessor(header model.Row, required []string) *Accessor {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = h.String()
	}

	index := make(map[string]int, len(header))
	for _, col := range required {
		for i, name := range names {
			if name == col {
				index[col] = i
				break
			}
		}
	}
	for i, name := range names {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return &Accessor{index: index}
}

// Index returns the zero-based position of a column.
func (a *Accessor) Index(column string) (int, bool) {
	i, ok := a.index[column]
	return i, ok
}

// Has reports whether the column exists in the header.
func (a *Accessor) Has(column string) bool {
	_, ok := a.index[column]
	return ok
}

// Get returns the cell of row under column. Unknown columns and short rows
// yield an empty cell. Text is trimmed of surrounding whitespace.
func (a *Accessor) Get(row model.Row, column string) model.CellValue {
	i, ok := a.index[column]
	if !ok || i >= len(row) {
		return model.Empty()
	}
	return row[i].Trimmed()
}

// String is a shorthand for Get(row, column).String().
func (a *Accessor) String(row model.Row, column string) string {
	return a.Get(row, column).String()
}

// ColumnLetter converts a zero-based column index to spreadsheet letters:
// 0 is A, 25 is Z, 26 is AA, 701 is ZZ.
func ColumnLetter(index int) string {
	n := index + 1
	var letters []byte
	for n > 0 {
		rem := (n - 1) % 26
		letters = append([]byte{byte('A' + rem)}, letters...)
		n = (n - 1) / 26
	}
	return string(letters)
}

// LinkBuilder creates deep links into a Google spreadsheet.
type LinkBuilder struct {
	// SpreadsheetID is the document id from the spreadsheet URL.
	SpreadsheetID string

	// SheetID is the numeric gid of the tab.
	SheetID int64

	// Columns resolves column names to letters. A nil accessor links to column A.
	Columns *Accessor
}

// Link returns the URL of the cell at rowIndex (zero-based, the sheet row
// is rowIndex+1) under column. Unknown or empty columns link to column A.
func (b LinkBuilder) Link(rowIndex int, column string) string {
	letter := "A"
	if column != "" && b.Columns != nil {
		if i, ok := b.Columns.Index(column); ok {
			letter = ColumnLetter(i)
		}
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%s&range=%s%d",
		b.SpreadsheetID, strconv.FormatInt(b.SheetID, 10), letter, rowIndex+1)
}
