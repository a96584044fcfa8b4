package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/planeta/qualitycheck/internal/config"
	"github.com/planeta/qualitycheck/internal/store"
	"github.com/planeta/qualitycheck/internal/tasklist"
)

// Auditor runs complete audits of one data source.
type Auditor struct {
	store       store.Store
	cfg         *config.Config
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	concurrency int
	dryRun      bool
	timeout     time.Duration
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithAuditorLogger sets the logger passed to every step.
func WithAuditorLogger(logger *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock sets the clock used for run timestamps, rule dates and task
// creation dates.
func WithClock(now func() time.Time) AuditorOption {
	return func(a *Auditor) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator sets the function producing run ids.
func WithIDGenerator(newID func() string) AuditorOption {
	return func(a *Auditor) {
		if newID != nil {
			a.newID = newID
		}
	}
}

// WithDryRun disables writing the task list.
func WithDryRun(dryRun bool) AuditorOption {
	return func(a *Auditor) {
		a.dryRun = dryRun
	}
}

// NewAuditor creates an Auditor reading st as described by cfg.
func NewAuditor(st store.Store, cfg *config.Config, opts ...AuditorOption) *Auditor {
	a := &Auditor{
		store:       st,
		cfg:         cfg,
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		concurrency: cfg.Concurrency,
		dryRun:      cfg.DryRun,
		timeout:     cfg.RequestTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Pipeline builds the steps of one run.
func (a *Auditor) Pipeline() *Pipeline {
	manager := tasklist.NewManager(
		tasklist.WithClock(a.now),
		tasklist.WithSheetOrder(a.cfg.SheetOrder()...),
	)

	p := New(WithLogger(a.logger))
	p.AddSteps(
		NewResolveSheetIDsStep(a.store, a.logger),
		NewAuditSheetsStep(a.store, a.cfg.SpreadsheetID,
			WithAuditLogger(a.logger),
			WithConcurrency(a.concurrency),
			WithAuditClock(a.now),
		),
		NewLoadTaskListStep(a.store, manager, a.logger),
		NewReconcileStep(manager, a.logger),
		NewWriteTaskListStep(a.store, a.logger),
	)
	return p
}

// source names the audited document.
func (a *Auditor) source() string {
	if a.cfg.Backend == config.BackendXLSX {
		return a.cfg.Workbook
	}
	return a.cfg.SpreadsheetID
}

// Run executes one audit. The returned Run is never nil; on error it
// holds whatever the steps completed.
func (a *Auditor) Run(ctx context.Context) (*Run, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	run := NewRun(a.newID(), a.source(), a.cfg.ReportSheet, SpecsFromConfig(a.cfg), a.now())
	run.DryRun = a.dryRun

	a.logger.Info("audit started",
		"run", run.ID,
		"backend", a.cfg.Backend,
		"dry_run", run.DryRun,
	)

	err := a.Pipeline().Execute(ctx, run)
	run.FinishedAt = a.now()

	if err != nil {
		return run, err
	}
	a.logger.Info("audit complete",
		"run", run.ID,
		"findings", len(run.Findings),
		"tasks", len(run.Tasks),
		"elapsed", run.Duration(),
	)
	return run, nil
}
