package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planeta/qualitycheck/internal/store"
	"github.com/planeta/qualitycheck/internal/tasklist"
)

// ResolveSheetIDsStep looks up the numeric id of every audited tab. A tab
// that cannot be resolved keeps its fallback id.
type ResolveSheetIDsStep struct {
	store  store.Store
	logger *slog.Logger
}

// NewResolveSheetIDsStep creates a ResolveSheetIDsStep.
func NewResolveSheetIDsStep(st store.Store, logger *slog.Logger) *ResolveSheetIDsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveSheetIDsStep{store: st, logger: logger}
}

// Name returns the step name.
func (s *ResolveSheetIDsStep) Name() string {
	return "resolve_sheet_ids"
}

// Do executes the step. Lookup failures are logged, not returned.
func (s *ResolveSheetIDsStep) Do(ctx context.Context, run *Run) error {
	for i := range run.Sheets {
		sr := &run.Sheets[i]
		id, ok, err := s.store.SheetID(ctx, sr.Spec.Name)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("sheet id lookup failed, using fallback",
				"sheet", sr.Spec.Name,
				"fallback", sr.Spec.FallbackID,
				"error", err,
			)
		case !ok:
			s.logger.Warn("sheet not found, using fallback id",
				"sheet", sr.Spec.Name,
				"fallback", sr.Spec.FallbackID,
			)
		default:
			sr.SheetID = id
		}
	}
	return nil
}

// LoadTaskListStep reads the current task list into Run.Previous.
type LoadTaskListStep struct {
	store   store.Store
	manager *tasklist.Manager
	logger  *slog.Logger
}

// NewLoadTaskListStep creates a LoadTaskListStep.
func NewLoadTaskListStep(st store.Store, manager *tasklist.Manager, logger *slog.Logger) *LoadTaskListStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadTaskListStep{store: st, manager: manager, logger: logger}
}

// Name returns the step name.
func (s *LoadTaskListStep) Name() string {
	return "load_task_list"
}

// Do executes the step. A missing task tab is an empty list.
func (s *LoadTaskListStep) Do(ctx context.Context, run *Run) error {
	rows, err := s.store.Read(ctx, run.TaskSheet, "", store.Formatted)
	if errors.Is(err, store.ErrSheetNotFound) {
		s.logger.Warn("task list not found, starting empty", "sheet", run.TaskSheet)
		run.Previous = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read task list: %w", err)
	}

	run.Previous = s.manager.ParseExisting(store.Strings(rows))
	s.logger.Debug("task list loaded",
		"sheet", run.TaskSheet,
		"tasks", len(run.Previous),
	)
	return nil
}

// ReconcileStep merges the previous task list with the run's findings.
type ReconcileStep struct {
	manager *tasklist.Manager
	logger  *slog.Logger
}

// NewReconcileStep creates a ReconcileStep.
func NewReconcileStep(manager *tasklist.Manager, logger *slog.Logger) *ReconcileStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileStep{manager: manager, logger: logger}
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do executes the step. Tasks of tabs that could not be read are carried
// over unchanged.
func (s *ReconcileStep) Do(_ context.Context, run *Run) error {
	var unread []string
	for _, sr := range run.FailedSheets() {
		unread = append(unread, sr.Spec.Name)
		s.logger.Warn("keeping tasks of unread sheet", "sheet", sr.Spec.Name)
	}

	run.Tasks = s.manager.Reconcile(run.Previous, run.Findings, unread...)
	run.Comparison = tasklist.Diff(run.Previous, run.Tasks)

	s.logger.Info("tasks total",
		"tasks", len(run.Tasks),
		"manual", run.ManualTasks(),
		"new", len(run.Comparison.New),
		"resolved", len(run.Comparison.Resolved),
	)
	return nil
}

// WriteTaskListStep replaces the task tab with the reconciled list and
// formats it when the store supports that.
type WriteTaskListStep struct {
	store  store.Store
	logger *slog.Logger
}

// NewWriteTaskListStep creates a WriteTaskListStep.
func NewWriteTaskListStep(st store.Store, logger *slog.Logger) *WriteTaskListStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteTaskListStep{store: st, logger: logger}
}

// Name returns the step name.
func (s *WriteTaskListStep) Name() string {
	return "write_task_list"
}

// Do executes the step. In a dry run nothing is written. A formatting
// failure is logged; the list itself is already in place.
func (s *WriteTaskListStep) Do(ctx context.Context, run *Run) error {
	if run.DryRun {
		s.logger.Info("dry run, task list not written", "sheet", run.TaskSheet)
		return nil
	}

	if err := s.store.ClearThenWrite(ctx, run.TaskSheet, tasklist.Render(run.Tasks)); err != nil {
		return fmt.Errorf("failed to write task list: %w", err)
	}
	run.Written = true

	if f, ok := s.store.(store.Formatter); ok {
		if err := f.FormatTaskSheet(ctx, run.TaskSheet); err != nil {
			s.logger.Warn("failed to format task list", "sheet", run.TaskSheet, "error", err)
		}
	}
	return nil
}
