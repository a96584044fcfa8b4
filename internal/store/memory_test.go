package store

import (
	"context"
	"errors"
	"testing"

	"github.com/planeta/qualitycheck/internal/model"
)

// TestMemory tests the in-process store.
func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	m.SetText("Продажи", 42, [][]string{{"skip"}, {"Дата", "Клиент"}, {"01.03.2024", "Иван"}})

	rows, err := m.Read(ctx, "Продажи", "A2:T", Unformatted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0][0].Str() != "Дата" || rows[1][1].Str() != "Иван" {
		t.Errorf("unexpected rows %v", rows)
	}

	id, ok, err := m.SheetID(ctx, "Продажи")
	if err != nil || !ok || id != 42 {
		t.Errorf("SheetID = %d, %v, %v", id, ok, err)
	}
	if _, ok, _ := m.SheetID(ctx, "Нет"); ok {
		t.Error("expected unknown sheet to be absent")
	}

	if _, err := m.Read(ctx, "Нет", "", Formatted); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("Read error = %v, want ErrSheetNotFound", err)
	}
}

// TestMemory_ClearThenWrite tests rewriting and creation of tabs.
func TestMemory_ClearThenWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	m.SetText("Задачи", 1, [][]string{{"old"}, {"old"}, {"old"}})

	if err := m.ClearThenWrite(ctx, "Задачи", [][]any{{"ID", "Manual task"}, {"abc", true}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	grid := m.Grid("Задачи")
	if len(grid) != 2 || grid[1][0].Str() != "abc" || !grid[1][1].Boolean() {
		t.Errorf("unexpected grid %v", grid)
	}
	if m.Writes("Задачи") != 1 {
		t.Errorf("Writes = %d, want 1", m.Writes("Задачи"))
	}

	if err := m.ClearThenWrite(ctx, "Новый", [][]any{{"x"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok, _ := m.SheetID(ctx, "Новый")
	if !ok || id == 1 {
		t.Errorf("new sheet id = %d, %v; expected a fresh id", id, ok)
	}
}

// TestMemory_FailOn tests injected failures.
func TestMemory_FailOn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	m.SetText("Обращения", 0, [][]string{{"a"}})

	boom := errors.New("boom")
	m.FailOn("Обращения", boom)
	if _, err := m.Read(ctx, "Обращения", "", Formatted); !errors.Is(err, boom) {
		t.Errorf("Read error = %v, want boom", err)
	}
	if err := m.ClearThenWrite(ctx, "Обращения", nil); !errors.Is(err, boom) {
		t.Errorf("ClearThenWrite error = %v, want boom", err)
	}

	m.FailOn("Обращения", nil)
	if _, err := m.Read(ctx, "Обращения", "", Formatted); err != nil {
		t.Errorf("unexpected error after clearing failure: %v", err)
	}
}

// TestMemory_CanceledContext tests that a done context is honoured.
func TestMemory_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	m.SetSheet("A", 1, [][]model.CellValue{{model.Text("x")}})
	if _, err := m.Read(ctx, "A", "", Formatted); !errors.Is(err, context.Canceled) {
		t.Errorf("Read error = %v, want context.Canceled", err)
	}
}
