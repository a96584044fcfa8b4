package tasklist

import (
	"fmt"
	"testing"
	"time"

	"github.com/planeta/qualitycheck/internal/model"
)

var (
	day1 = time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func finding(sheet string, row int, column string, et model.ErrorType, desc string) model.Finding {
	return model.Finding{
		RowNumber:   row,
		Column:      column,
		ErrorType:   et,
		Description: desc,
		CellLink:    fmt.Sprintf("https://docs.google.com/spreadsheets/d/doc/edit#gid=1&range=A%d", row),
		SheetName:   sheet,
		Admin:       "Анна",
	}
}

// toStrings converts rendered rows into what the sink returns on read.
func toStrings(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out
}

// TestParseExisting tests task list parsing.
func TestParseExisting(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"ID", "Manual task", "Дата", "Лист", "Тип", "Админ", "Описание", "Ссылка"},
		{"a1", "FALSE", "14.03.2024", "Продажи", "Скидка", "Анна", "Описание 1", "link"},
		{"", "Вручную", "10.03.2024", "Обращения", "Тип", "Ольга", "Позвонить клиенту"},
		{"", "FALSE", "10.03.2024", "Обращения", "Тип", "Ольга", "Потерянная строка"},
		{"short", "TRUE", "10.03.2024", "Продажи"},
		{"b2", "ИСТИНА", "11.03.2024", "Тренировки", "Статус"},
		{"a1", "TRUE", "15.03.2024", "Продажи", "Скидка", "Мария", "Описание 2", "link2"},
	}

	items := NewManager().ParseExisting(rows)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	if items[0].UID != "a1" || items[0].Description != "Описание 2" || !items[0].IsManual {
		t.Errorf("duplicate id should replace in place, got %+v", items[0])
	}

	manual := items[1]
	if manual.UID != ManualUID("10.03.2024", "Позвонить клиенту") {
		t.Errorf("manual UID = %q", manual.UID)
	}
	if !manual.IsManual || manual.Link != "" || manual.Admin != "Ольга" {
		t.Errorf("unexpected manual item %+v", manual)
	}

	if items[2].UID != "b2" || !items[2].IsManual || items[2].Description != "" {
		t.Errorf("unexpected item %+v", items[2])
	}
}

// TestParseExistingWithoutHeader tests rows that start with data.
func TestParseExistingWithoutHeader(t *testing.T) {
	t.Parallel()

	m := NewManager()
	if got := m.ParseExisting(nil); len(got) != 0 {
		t.Errorf("expected no items, got %+v", got)
	}

	items := m.ParseExisting([][]string{{"x", "", "01.01.2024", "Продажи", "Дата"}})
	if len(items) != 1 || items[0].IsManual {
		t.Errorf("unexpected items %+v", items)
	}
}

// TestManualFlags tests the accepted manual markers.
func TestManualFlags(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		flag     string
		expected bool
	}{
		{"TRUE", true},
		{"True", true},
		{"true", true},
		{"Вручную", true},
		{"ИСТИНА", true},
		{"FALSE", false},
		{"ЛОЖЬ", false},
		{"", false},
		{"да", false},
	}

	for _, tc := range testCases {
		t.Run(tc.flag, func(t *testing.T) {
			t.Parallel()
			items := NewManager().ParseExisting([][]string{{"id", tc.flag, "", "", ""}})
			if len(items) != 1 || items[0].IsManual != tc.expected {
				t.Errorf("flag %q: got %+v", tc.flag, items)
			}
		})
	}
}

// TestManualUID tests the derived id of manual tasks.
func TestManualUID(t *testing.T) {
	t.Parallel()

	if got, want := ManualUID("10.03.2024", "x"), model.MD5Hex("manual_10.03.2024_x"); got != want {
		t.Errorf("got %q, expected %q", got, want)
	}
	if ManualUID("10.03.2024", "x") == ManualUID("11.03.2024", "x") {
		t.Error("date should change the id")
	}
}

// TestReconcile tests refresh, survival, removal and creation.
func TestReconcile(t *testing.T) {
	t.Parallel()

	recurring := finding("Продажи", 5, "Скидка", model.ErrEmpty, "новое описание")
	fresh := finding("Тренировки", 7, "Статус", model.ErrInvalidValue, "Недопустимый статус")

	existing := []model.ReportItem{
		{UID: recurring.UID(), Sheet: "Продажи", ErrorColumn: "Скидка", Description: "старое", CreatedDate: "01.03.2024", Admin: "Ольга"},
		{UID: "stale", Sheet: "Продажи", ErrorColumn: "Дата", CreatedDate: "02.03.2024"},
		{UID: "manual", IsManual: true, Sheet: "Обращения", ErrorColumn: "Тип", Description: "вручную", CreatedDate: "03.03.2024"},
	}

	m := NewManager(WithClock(clockAt(day2)))
	items := m.Reconcile(existing, []model.Finding{fresh, recurring})

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %+v", items)
	}

	refreshed := items[0]
	if refreshed.UID != recurring.UID() {
		t.Fatalf("first item should be the refreshed one, got %+v", refreshed)
	}
	if refreshed.Description != "новое описание" || refreshed.Admin != "Анна" || refreshed.Link != recurring.CellLink {
		t.Errorf("item not refreshed: %+v", refreshed)
	}
	if refreshed.CreatedDate != "01.03.2024" {
		t.Errorf("CreatedDate changed to %q", refreshed.CreatedDate)
	}

	if items[1].UID != "manual" || items[1].Description != "вручную" {
		t.Errorf("manual item should survive unchanged, got %+v", items[1])
	}

	created := items[2]
	if created.UID != fresh.UID() || created.IsManual || created.CreatedDate != "15.03.2024" {
		t.Errorf("unexpected new item %+v", created)
	}
	if created.Sheet != "Тренировки" || created.ErrorColumn != "Статус" || created.Description != "Недопустимый статус" {
		t.Errorf("new item fields not copied: %+v", created)
	}

	for _, item := range items {
		if item.UID == "stale" {
			t.Error("stale automatic item should be dropped")
		}
	}
}

// TestReconcileUnreadSheets tests that items of unread sheets are kept
// as they were.
func TestReconcileUnreadSheets(t *testing.T) {
	t.Parallel()

	existing := []model.ReportItem{
		{UID: "lead", Sheet: "Обращения", ErrorColumn: "Тип", Description: "старое", CreatedDate: "02.03.2024"},
		{UID: "sale", Sheet: "Продажи", ErrorColumn: "Скидка", CreatedDate: "01.03.2024"},
	}

	m := NewManager(WithClock(clockAt(day2)))
	items := m.Reconcile(existing, nil, "Обращения")
	if len(items) != 1 || items[0] != existing[0] {
		t.Errorf("expected only the unread sheet's item, got %+v", items)
	}

	if items := m.Reconcile(existing, nil); len(items) != 0 {
		t.Errorf("expected every automatic item dropped, got %+v", items)
	}
}

// TestReconcileManualWithFinding tests that a manual item matching a
// finding is refreshed and stays manual.
func TestReconcileManualWithFinding(t *testing.T) {
	t.Parallel()

	f := finding("Продажи", 3, "Тренер", model.ErrEmpty, "нет тренера")
	items := NewManager(WithClock(clockAt(day2))).Reconcile(
		[]model.ReportItem{{UID: f.UID(), IsManual: true, CreatedDate: "01.03.2024"}},
		[]model.Finding{f},
	)
	if len(items) != 1 || !items[0].IsManual || items[0].Description != "нет тренера" {
		t.Errorf("unexpected items %+v", items)
	}
}

// TestReconcileDuplicateFindings tests that equal uids produce one item.
func TestReconcileDuplicateFindings(t *testing.T) {
	t.Parallel()

	first := finding("Продажи", 3, "Тренер", model.ErrEmpty, "первое")
	second := finding("Продажи", 3, "Тренер", model.ErrEmpty, "второе")

	items := NewManager(WithClock(clockAt(day1))).Reconcile(nil, []model.Finding{first, second})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %+v", items)
	}
	if items[0].Description != "второе" {
		t.Errorf("last finding should win, got %q", items[0].Description)
	}
}

// TestReconcileIdempotent tests that feeding the output back is stable.
func TestReconcileIdempotent(t *testing.T) {
	t.Parallel()

	findings := []model.Finding{
		finding("Обращения", 4, "Тип", model.ErrEmpty, "a"),
		finding("Продажи", 9, "Комментарий", model.ErrEmpty, "b"),
		finding("Тренировки", 2, "Статус", model.ErrInvalidValue, "c"),
		finding("Продажи", 3, "Внесли в CRM", model.ErrProcess, "d"),
	}
	manualRow := []string{"", "TRUE", "01.03.2024", "Продажи", "Касса", "Ольга", "Сверить кассу", ""}

	first := NewManager(WithClock(clockAt(day1)))
	existing := first.ParseExisting([][]string{manualRow})
	pass1 := first.Reconcile(existing, findings)

	second := NewManager(WithClock(clockAt(day2)))
	pass2 := second.Reconcile(second.ParseExisting(toStrings(Render(pass1))), findings)

	if len(pass1) != len(pass2) {
		t.Fatalf("lengths differ: %d vs %d", len(pass1), len(pass2))
	}
	for i := range pass1 {
		a, b := pass1[i], pass2[i]
		if a.UID != b.UID || a.IsManual != b.IsManual || a.Sheet != b.Sheet ||
			a.ErrorColumn != b.ErrorColumn || a.Description != b.Description || a.Admin != b.Admin {
			t.Errorf("item %d differs:\n%+v\n%+v", i, a, b)
		}
		if a.CreatedDate != b.CreatedDate {
			t.Errorf("item %d CreatedDate changed from %q to %q", i, a.CreatedDate, b.CreatedDate)
		}
		if a.Link != b.Link && !a.IsManual {
			t.Errorf("item %d link differs: %q vs %q", i, a.Link, b.Link)
		}
	}
}

// TestSort tests the composite order and its stability.
func TestSort(t *testing.T) {
	t.Parallel()

	items := []model.ReportItem{
		{UID: "1", CreatedDate: "15.03.2024", Sheet: "Обращения", ErrorColumn: "Тип"},
		{UID: "2", CreatedDate: "15.03.2024", Sheet: "Продажи", ErrorColumn: "Скидка"},
		{UID: "3", CreatedDate: "01.04.2023", Sheet: "Тренировки", ErrorColumn: "Статус"},
		{UID: "4", CreatedDate: "15.03.2024", Sheet: "Продажи", ErrorColumn: "Админ"},
		{UID: "5", CreatedDate: "", Sheet: "Продажи", ErrorColumn: "Дата"},
		{UID: "6", CreatedDate: "15.03.2024", Sheet: "Прочее", ErrorColumn: "A"},
		{UID: "7", CreatedDate: "15.03.2024", Sheet: "Продажи", ErrorColumn: "Скидка"},
		{UID: "8", CreatedDate: "вчера", Sheet: "Продажи", ErrorColumn: "Дата"},
	}

	NewManager().Sort(items)

	var got []string
	for _, item := range items {
		got = append(got, item.UID)
	}
	expected := []string{"5", "8", "3", "4", "2", "7", "1", "6"}
	if fmt.Sprint(got) != fmt.Sprint(expected) {
		t.Errorf("order = %v, expected %v", got, expected)
	}
}

// TestWithSheetOrder tests custom sheet priorities.
func TestWithSheetOrder(t *testing.T) {
	t.Parallel()

	items := []model.ReportItem{
		{UID: "a", CreatedDate: "01.01.2024", Sheet: "Sales"},
		{UID: "b", CreatedDate: "01.01.2024", Sheet: "Leads"},
	}
	NewManager(WithSheetOrder("Leads", "Sales")).Sort(items)
	if items[0].UID != "b" {
		t.Errorf("expected Leads first, got %+v", items)
	}
}

// TestDateKey tests the creation date sort key.
func TestDateKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected int
	}{
		{"15.03.2024", 20240315},
		{"1.3.2024", 202431},
		{"", 0},
		{"2024-03-15", 0},
		{"aa.bb.cccc", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := dateKey(tc.input); got != tc.expected {
				t.Errorf("dateKey(%q) = %d, expected %d", tc.input, got, tc.expected)
			}
		})
	}
}
