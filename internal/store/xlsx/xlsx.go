// Package xlsx implements store.Store on a local Excel workbook, for
// audits of an exported copy of the spreadsheet.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/planeta/qualitycheck/internal/model"
	"github.com/planeta/qualitycheck/internal/store"
)

// ErrNoWorkbook is returned when no workbook path is given.
var ErrNoWorkbook = errors.New("workbook path is required")

// hyperlinkFormula matches the link formula rendered into the task list.
var hyperlinkFormula = regexp.MustCompile(`^=HYPERLINK\("([^"]*)"; *"([^"]*)"\)$`)

// Workbook is a store.Store backed by an .xlsx file. Every write is saved
// to disk immediately.
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open opens the workbook at path. A missing file is created empty when
// create is true.
func Open(path string, create bool) (*Workbook, error) {
	if path == "" {
		return nil, ErrNoWorkbook
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || !create {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook %s: %w", path, err)
		}
	}
	return &Workbook{path: path, file: f}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// Read implements store.Store. In store.Unformatted mode numeric cells are
// returned as numbers and boolean cells as booleans.
func (w *Workbook) Read(ctx context.Context, sheet, rng string, mode store.RenderMode) ([]model.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := store.ParseRange(rng)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if idx, _ := w.file.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrSheetNotFound, sheet)
	}

	raw := mode == store.Unformatted
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}

	grid := make([][]model.CellValue, len(rows))
	for i, row := range rows {
		cells := make([]model.CellValue, len(row))
		for j, text := range row {
			if !raw {
				cells[j] = model.Text(text)
				continue
			}
			cells[j] = w.typedCell(sheet, j+1, i+1, text)
		}
		grid[i] = cells
	}
	return r.Apply(grid), nil
}

// typedCell converts the raw text of a cell to the value the Sheets API
// would return unformatted. Callers hold w.mu.
func (w *Workbook) typedCell(sheet string, col, row int, text string) model.CellValue {
	if text == "" {
		return model.Empty()
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return model.Text(text)
	}
	typ, err := w.file.GetCellType(sheet, name)
	if err != nil {
		return model.Text(text)
	}

	switch typ {
	case excelize.CellTypeBool:
		return model.Bool(text == "1" || text == "TRUE")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return model.Number(f)
		}
	}
	return model.Text(text)
}

// ClearThenWrite implements store.Store. A missing tab is created. Link
// formulas become native hyperlinks.
func (w *Workbook) ClearThenWrite(ctx context.Context, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if idx, _ := w.file.GetSheetIndex(sheet); idx < 0 {
		if _, err := w.file.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	} else if err := w.clear(sheet); err != nil {
		return err
	}

	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := w.setCell(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}

	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}

// clear removes every row of sheet. Callers hold w.mu.
func (w *Workbook) clear(sheet string) error {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	for i := len(rows); i >= 1; i-- {
		if err := w.file.RemoveRow(sheet, i); err != nil {
			return fmt.Errorf("failed to clear %s: %w", sheet, err)
		}
	}
	return nil
}

func (w *Workbook) setCell(sheet, cell string, v any) error {
	s, ok := v.(string)
	if !ok {
		return w.file.SetCellValue(sheet, cell, v)
	}
	if m := hyperlinkFormula.FindStringSubmatch(s); m != nil {
		if err := w.file.SetCellValue(sheet, cell, m[2]); err != nil {
			return err
		}
		return w.file.SetCellHyperLink(sheet, cell, m[1], "External")
	}
	return w.file.SetCellValue(sheet, cell, s)
}

// SheetID implements store.Store. The id is the tab position.
func (w *Workbook) SheetID(ctx context.Context, name string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return 0, false, err
	}
	if idx < 0 {
		return 0, false, nil
	}
	return int64(idx), true, nil
}

// FormatTaskSheet implements store.Formatter.
func (w *Workbook) FormatTaskSheet(ctx context.Context, sheet string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if idx, _ := w.file.GetSheetIndex(sheet); idx < 0 {
		return fmt.Errorf("%w: %s", store.ErrSheetNotFound, sheet)
	}

	if err := w.file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header of %s: %w", sheet, err)
	}
	if err := w.file.SetColVisible(sheet, "A", false); err != nil {
		return fmt.Errorf("failed to hide id column of %s: %w", sheet, err)
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = "B2:B1048576"
	if err := dv.SetDropList([]string{"TRUE", "FALSE"}); err != nil {
		return err
	}
	if err := w.file.AddDataValidation(sheet, dv); err != nil {
		return fmt.Errorf("failed to add checkbox validation to %s: %w", sheet, err)
	}

	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}
