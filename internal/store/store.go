package store

import (
	"context"
	"errors"

	"github.com/planeta/qualitycheck/internal/model"
)

// ErrSheetNotFound is returned when a tab does not exist in the data source.
var ErrSheetNotFound = errors.New("sheet not found")

// RenderMode selects how cell values are read.
type RenderMode int

const (
	// Formatted returns every cell as its display text.
	Formatted RenderMode = iota

	// Unformatted returns numbers and booleans as typed values.
	Unformatted
)

// String returns the mode name used by the Sheets API.
func (m RenderMode) String() string {
	if m == Unformatted {
		return "UNFORMATTED_VALUE"
	}
	return "FORMATTED_VALUE"
}

// Store reads audited sheets and replaces the task list.
type Store interface {
	// Read returns the rows of rng on sheet. An empty rng reads the whole
	// sheet. Trailing empty cells and rows are not returned.
	Read(ctx context.Context, sheet, rng string, mode RenderMode) ([]model.Row, error)

	// ClearThenWrite empties sheet and writes rows from A1. Values starting
	// with "=" are entered as formulas. The two steps are not atomic.
	ClearThenWrite(ctx context.Context, sheet string, rows [][]any) error

	// SheetID returns the numeric id of the named tab. The boolean is false
	// when no tab has that name.
	SheetID(ctx context.Context, name string) (int64, bool, error)
}

// Formatter is implemented by stores that can style the task list tab:
// frozen header, hidden id column and checkboxes in the manual column.
type Formatter interface {
	FormatTaskSheet(ctx context.Context, sheet string) error
}

// Closer is implemented by stores holding resources.
type Closer interface {
	Close() error
}

// Strings converts rows to their display text.
func Strings(rows []model.Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(row))
		for j, v := range row {
			line[j] = v.String()
		}
		out[i] = line
	}
	return out
}
