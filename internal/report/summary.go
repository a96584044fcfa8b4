package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/planeta/qualitycheck/internal/model"
	"github.com/planeta/qualitycheck/internal/pipeline"
)

// SheetSummary is the outcome of one audited tab.
type SheetSummary struct {
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	Findings int    `json:"findings"`
	Error    string `json:"error,omitempty"`
}

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the reportable view of a finished run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	TaskSheet  string    `json:"task_sheet"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	Written    bool      `json:"written"`
	TimedOut   bool      `json:"timed_out"`
	Error      string    `json:"error,omitempty"`

	Sheets   []SheetSummary `json:"sheets"`
	Findings int            `json:"findings"`

	// Tasks is the reconciled task list.
	Tasks       []model.ReportItem `json:"tasks"`
	ManualTasks int                `json:"manual_tasks"`

	NewTasks       []model.ReportItem `json:"new_tasks,omitempty"`
	ResolvedTasks  []model.ReportItem `json:"resolved_tasks,omitempty"`
	UnchangedTasks int                `json:"unchanged_tasks"`

	// ByAdmin counts open tasks per responsible admin.
	ByAdmin []Count `json:"by_admin"`

	// ByErrorType counts this run's findings per error type label.
	ByErrorType []Count `json:"by_error_type"`
}

// NewSummary builds a Summary from run.
func NewSummary(run *pipeline.Run) *Summary {
	s := &Summary{
		RunID:          run.ID,
		Source:         run.Source,
		TaskSheet:      run.TaskSheet,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
		DryRun:         run.DryRun,
		Written:        run.Written,
		TimedOut:       run.TimedOut,
		Findings:       len(run.Findings),
		Tasks:          run.Tasks,
		ManualTasks:    run.ManualTasks(),
		NewTasks:       run.Comparison.New,
		ResolvedTasks:  run.Comparison.Resolved,
		UnchangedTasks: run.Comparison.Unchanged,
	}
	if run.Err != nil {
		s.Error = run.Err.Error()
	}

	for _, sr := range run.Sheets {
		sheet := SheetSummary{
			Name:     sr.Spec.Name,
			Rows:     sr.Rows,
			Findings: len(sr.Findings),
		}
		if sr.Err != nil {
			sheet.Error = sr.Err.Error()
		}
		s.Sheets = append(s.Sheets, sheet)
	}

	admins := make(map[string]int)
	for _, t := range run.Tasks {
		admin := t.Admin
		if admin == "" {
			admin = model.Unknown
		}
		admins[admin]++
	}
	s.ByAdmin = sortedCounts(admins)

	types := make(map[string]int)
	for _, f := range run.Findings {
		types[f.ErrorType.Label()]++
	}
	s.ByErrorType = sortedCounts(types)

	return s
}

// sortedCounts orders tallies by count, largest first, then by label.
func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for label, n := range m {
		counts = append(counts, Count{Label: label, Count: n})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return counts
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedSheets returns the number of tabs that could not be read.
func (s *Summary) FailedSheets() int {
	n := 0
	for _, sh := range s.Sheets {
		if sh.Error != "" {
			n++
		}
	}
	return n
}

// HasTasks reports whether the task list is non-empty.
func (s *Summary) HasTasks() bool {
	return len(s.Tasks) > 0
}

// Status returns a one-word state of the run.
func (s *Summary) Status() string {
	switch {
	case s.TimedOut:
		return "timed out"
	case s.Error != "":
		return "failed"
	case s.DryRun:
		return "dry run"
	case s.FailedSheets() > 0:
		return "partial"
	default:
		return "complete"
	}
}
