package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/planeta/qualitycheck/internal/store"
	"github.com/planeta/qualitycheck/internal/validator"
)

// AuditSheetsStep reads and validates the audited tabs concurrently.
// Each validator starts only once its own rows are fully read, and the
// findings are collected in tab order whatever the completion order.
type AuditSheetsStep struct {
	store         store.Store
	spreadsheetID string
	concurrency   int
	now           func() time.Time
	logger        *slog.Logger
}

// AuditOption configures an AuditSheetsStep.
type AuditOption func(*AuditSheetsStep)

// WithAuditLogger sets a custom logger.
func WithAuditLogger(logger *slog.Logger) AuditOption {
	return func(s *AuditSheetsStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConcurrency sets the maximum number of tabs processed at once.
// Default is 3 if not specified.
func WithConcurrency(n int) AuditOption {
	return func(s *AuditSheetsStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithAuditClock sets the clock the rule sets use for "today".
func WithAuditClock(now func() time.Time) AuditOption {
	return func(s *AuditSheetsStep) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuditSheetsStep creates an AuditSheetsStep. spreadsheetID is used in
// cell links.
func NewAuditSheetsStep(st store.Store, spreadsheetID string, opts ...AuditOption) *AuditSheetsStep {
	s := &AuditSheetsStep{
		store:         st,
		spreadsheetID: spreadsheetID,
		concurrency:   3,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *AuditSheetsStep) Name() string {
	return "audit_sheets"
}

// Do executes the step. A tab that cannot be read is logged and recorded
// in its SheetResult; the other tabs still count. Only cancellation of ctx
// is returned as an error.
func (s *AuditSheetsStep) Do(ctx context.Context, run *Run) error {
	s.logger.Info("auditing sheets",
		"sheets", len(run.Sheets),
		"concurrency", s.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range run.Sheets {
		// Each goroutine owns run.Sheets[i].
		sr := &run.Sheets[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if err := s.auditSheet(gctx, sr); err != nil {
				sr.Err = err
				s.logger.Error("failed to audit sheet",
					"sheet", sr.Spec.Name,
					"error", err,
				)
				return nil
			}

			s.logger.Info("sheet audited",
				"sheet", sr.Spec.Name,
				"rows", sr.Rows,
				"findings", len(sr.Findings),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	run.Findings = run.Findings[:0]
	for _, sr := range run.Sheets {
		run.Findings = append(run.Findings, sr.Findings...)
	}

	s.logger.Info("sheets audited",
		"findings", len(run.Findings),
		"failed", len(run.FailedSheets()),
		"elapsed", time.Since(startTime),
	)
	return nil
}

func (s *AuditSheetsStep) auditSheet(ctx context.Context, sr *SheetResult) error {
	rows, err := s.store.Read(ctx, sr.Spec.Name, sr.Spec.Range, sr.Spec.Mode)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		sr.Rows = len(rows) - 1
	}

	sheet := &validator.Sheet{
		Name:          sr.Spec.Name,
		SpreadsheetID: s.spreadsheetID,
		SheetID:       sr.SheetID,
		Rows:          rows,
		Required:      sr.Spec.Required,
	}
	v, err := validator.New(sr.Spec.Kind, sheet, validator.WithClock(s.now))
	if err != nil {
		return fmt.Errorf("sheet %s: %w", sr.Spec.Name, err)
	}
	sr.Findings = v.Validate()
	return nil
}
