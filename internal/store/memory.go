package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/planeta/qualitycheck/internal/model"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	grids  map[string][][]model.CellValue
	ids    map[string]int64
	fail   map[string]error
	nextID int64
	// Writes counts ClearThenWrite calls per sheet.
	writes map[string]int
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		grids:  make(map[string][][]model.CellValue),
		ids:    make(map[string]int64),
		fail:   make(map[string]error),
		writes: make(map[string]int),
		nextID: 1,
	}
}

// SetSheet replaces the content of a tab, starting at A1, and assigns it id.
func (m *Memory) SetSheet(name string, id int64, grid [][]model.CellValue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.grids[name] = copyGrid(grid)
	m.ids[name] = id
}

// SetText is SetSheet for a grid of plain strings.
func (m *Memory) SetText(name string, id int64, grid [][]string) {
	cells := make([][]model.CellValue, len(grid))
	for i, row := range grid {
		cells[i] = make([]model.CellValue, len(row))
		for j, s := range row {
			cells[i][j] = model.Text(s)
		}
	}
	m.SetSheet(name, id, cells)
}

// FailOn makes every call touching sheet return err. A nil err clears it.
func (m *Memory) FailOn(sheet string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.fail, sheet)
		return
	}
	m.fail[sheet] = err
}

// Grid returns a copy of the content of a tab.
func (m *Memory) Grid(name string) [][]model.CellValue {
	m.mu.Lock()
	defer m.mu.Unlock()

	return copyGrid(m.grids[name])
}

// Writes returns how many times sheet was rewritten.
func (m *Memory) Writes(sheet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes[sheet]
}

// Read implements Store. The render mode is ignored.
func (m *Memory) Read(ctx context.Context, sheet, rng string, _ RenderMode) ([]model.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail[sheet]; err != nil {
		return nil, err
	}
	grid, ok := m.grids[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	return r.Apply(grid), nil
}

// ClearThenWrite implements Store. A missing tab is created.
func (m *Memory) ClearThenWrite(ctx context.Context, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail[sheet]; err != nil {
		return err
	}
	grid := make([][]model.CellValue, len(rows))
	for i, row := range rows {
		grid[i] = make([]model.CellValue, len(row))
		for j, v := range row {
			grid[i][j] = model.FromAny(v)
		}
	}
	m.grids[sheet] = grid
	if _, ok := m.ids[sheet]; !ok {
		m.ids[sheet] = m.allocID()
	}
	m.writes[sheet]++
	return nil
}

// SheetID implements Store.
func (m *Memory) SheetID(ctx context.Context, name string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.ids[name]
	return id, ok, nil
}

// allocID returns an id not used by any tab. Callers hold m.mu.
func (m *Memory) allocID() int64 {
	for {
		id := m.nextID
		m.nextID++
		used := false
		for _, v := range m.ids {
			if v == id {
				used = true
				break
			}
		}
		if !used {
			return id
		}
	}
}

func copyGrid(grid [][]model.CellValue) [][]model.CellValue {
	if grid == nil {
		return nil
	}
	out := make([][]model.CellValue, len(grid))
	for i, row := range grid {
		out[i] = append([]model.CellValue(nil), row...)
	}
	return out
}
