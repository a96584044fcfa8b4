package tasklist

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/planeta/qualitycheck/internal/model"
)

// HeaderSentinel is the first header cell of the task list.
const HeaderSentinel = "ID"

// minRowCells is the shortest row that still describes a task.
const minRowCells = 5

// unknownSheetPriority sorts sheets without a configured priority last.
const unknownSheetPriority = 99

// DefaultSheetOrder is the task list priority of the audited sheets.
var DefaultSheetOrder = []string{"Продажи", "Тренировки", "Обращения"}

// manualFlags are the cell values that mark an operator-created task.
var manualFlags = map[string]bool{
	"TRUE":    true,
	"True":    true,
	"true":    true,
	"Вручную": true,
	"ИСТИНА":  true,
}

// Manager reconciles findings with the task list.
type Manager struct {
	now        func() time.Time
	sheetOrder map[string]int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the function used to date new tasks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSheetOrder sets the sheet priority used when sorting. Sheets are
// ranked by their position in names.
func WithSheetOrder(names ...string) Option {
	return func(m *Manager) {
		m.sheetOrder = rankSheets(names)
	}
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		now:        time.Now,
		sheetOrder: rankSheets(DefaultSheetOrder),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func rankSheets(names []string) map[string]int {
	order := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := order[name]; !ok {
			order[name] = i
		}
	}
	return order
}

// ParseExisting converts task list rows into items, in row order.
//
// A leading header row is skipped. Rows shorter than five cells are
// ignored. A row without an id is kept only when it is marked manual; it
// then gets an id derived from its date and description. When two rows
// share an id, the later one replaces the earlier in place.
func (m *Manager) ParseExisting(rows [][]string) []model.ReportItem {
	if len(rows) == 0 {
		return nil
	}
	start := 0
	if len(rows[0]) > 0 && rows[0][0] == HeaderSentinel {
		start = 1
	}

	var items []model.ReportItem
	position := make(map[string]int)
	for _, row := range rows[start:] {
		if len(row) < minRowCells {
			continue
		}
		item := model.ReportItem{
			UID:         row[0],
			IsManual:    manualFlags[cellAt(row, 1)],
			CreatedDate: cellAt(row, 2),
			Sheet:       cellAt(row, 3),
			ErrorColumn: cellAt(row, 4),
			Admin:       cellAt(row, 5),
			Description: cellAt(row, 6),
			Link:        cellAt(row, 7),
		}
		if item.UID == "" {
			if !item.IsManual {
				continue
			}
			item.UID = ManualUID(item.CreatedDate, item.Description)
		}

		if p, ok := position[item.UID]; ok {
			items[p] = item
			continue
		}
		position[item.UID] = len(items)
		items = append(items, item)
	}
	return items
}

// ManualUID returns the id given to a manual task that has none.
func ManualUID(createdDate, description string) string {
	return model.MD5Hex("manual_" + createdDate + "_" + description)
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Reconcile merges the previous task list with this run's findings and
// returns the sorted active list.
//
// An existing item whose uid recurs is refreshed from the finding. An
// existing manual item without a finding is kept as is; any other stale
// item is dropped. Findings that matched nothing become new items dated
// today. When several findings share a uid the last one is used.
//
// Items of the sheets named in unread are kept unchanged: those sheets
// produced no findings this run, so their absence proves nothing.
func (m *Manager) Reconcile(existing []model.ReportItem, findings []model.Finding, unread ...string) []model.ReportItem {
	skipped := make(map[string]bool, len(unread))
	for _, name := range unread {
		skipped[name] = true
	}

	pending := make(map[string]model.Finding, len(findings))
	var order []string
	for _, f := range findings {
		uid := f.UID()
		if _, ok := pending[uid]; !ok {
			order = append(order, uid)
		}
		pending[uid] = f
	}

	active := make([]model.ReportItem, 0, len(existing)+len(pending))
	for _, item := range existing {
		if f, ok := pending[item.UID]; ok {
			item.Description = f.Description
			item.Link = f.CellLink
			item.ErrorColumn = f.Column
			item.Sheet = f.SheetName
			item.Admin = f.Admin
			active = append(active, item)
			delete(pending, item.UID)
			continue
		}
		if item.IsManual || skipped[item.Sheet] {
			active = append(active, item)
		}
	}

	today := m.now().Format(model.DateLayout)
	for _, uid := range order {
		f, ok := pending[uid]
		if !ok {
			continue
		}
		active = append(active, model.ReportItem{
			UID:         uid,
			IsManual:    false,
			Sheet:       f.SheetName,
			ErrorColumn: f.Column,
			Description: f.Description,
			Link:        f.CellLink,
			CreatedDate: today,
			Admin:       f.Admin,
		})
		delete(pending, uid)
	}

	m.Sort(active)
	return active
}

// Sort orders items by creation date (oldest first), then sheet priority,
// then column name. Items that compare equal keep their order.
func (m *Manager) Sort(items []model.ReportItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if da, db := dateKey(a.CreatedDate), dateKey(b.CreatedDate); da != db {
			return da < db
		}
		if sa, sb := m.sheetPriority(a.Sheet), m.sheetPriority(b.Sheet); sa != sb {
			return sa < sb
		}
		return a.ErrorColumn < b.ErrorColumn
	})
}

func (m *Manager) sheetPriority(sheet string) int {
	if p, ok := m.sheetOrder[sheet]; ok {
		return p
	}
	return unknownSheetPriority
}

// dateKey turns DD.MM.YYYY into the integer YYYYMMDD. Anything else is 0.
func dateKey(date string) int {
	parts := strings.Split(date, ".")
	if len(parts) != 3 {
		return 0
	}
	n, err := strconv.Atoi(parts[2] + parts[1] + parts[0])
	if err != nil {
		return 0
	}
	return n
}
