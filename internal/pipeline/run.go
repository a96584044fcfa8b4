package pipeline

import (
	"time"

	"github.com/planeta/qualitycheck/internal/config"
	"github.com/planeta/qualitycheck/internal/model"
	"github.com/planeta/qualitycheck/internal/store"
	"github.com/planeta/qualitycheck/internal/tasklist"
)

// SheetSpec describes how one audited tab is read.
type SheetSpec struct {
	// Kind selects the rule set.
	Kind model.SheetKind

	// Name is the tab name.
	Name string

	// Range is the A1 range read; its first row is the header.
	Range string

	// Mode is the render mode of the read.
	Mode store.RenderMode

	// FallbackID is used in links when the tab id cannot be resolved.
	FallbackID int64

	// Required lists the columns that must exist in the header.
	Required []string
}

// SpecsFromConfig returns the audited tabs of cfg in task list order.
func SpecsFromConfig(cfg *config.Config) []SheetSpec {
	specs := make([]SheetSpec, 0, len(model.SheetKinds()))
	for _, kind := range model.SheetKinds() {
		sc := cfg.Sheet(kind)
		mode := store.Formatted
		if sc.Unformatted {
			mode = store.Unformatted
		}
		specs = append(specs, SheetSpec{
			Kind:       kind,
			Name:       sc.Name,
			Range:      sc.Range,
			Mode:       mode,
			FallbackID: sc.FallbackID,
			Required:   append([]string(nil), sc.Required...),
		})
	}
	return specs
}

// SheetResult is the outcome of auditing one tab.
type SheetResult struct {
	// Spec is the tab that was audited.
	Spec SheetSpec

	// SheetID is the resolved or fallback tab id.
	SheetID int64

	// Rows is the number of data rows, header excluded.
	Rows int

	// Findings are the problems found on the tab.
	Findings []model.Finding

	// Err is set when the tab could not be read. Its findings are then
	// missing from the run.
	Err error
}

// Run is the state shared by the steps of one audit.
type Run struct {
	// ID identifies the run in the history database.
	ID string

	// Source names the audited spreadsheet or workbook.
	Source string

	// TaskSheet is the tab holding the task list.
	TaskSheet string

	StartedAt  time.Time
	FinishedAt time.Time

	// Sheets holds one result per audited tab, in task list order.
	Sheets []SheetResult

	// Findings are the findings of every tab, in tab order.
	Findings []model.Finding

	// Previous is the task list found before the run.
	Previous []model.ReportItem

	// Tasks is the reconciled task list.
	Tasks []model.ReportItem

	// Comparison relates Tasks to Previous.
	Comparison tasklist.Comparison

	// DryRun is set when the task list must not be written.
	DryRun bool

	// Written is set once the task list was written.
	Written bool

	// TimedOut is set when the run was cancelled between steps.
	TimedOut bool

	// PerformedSteps lists the names of the steps that ran.
	PerformedSteps []string

	// Err is the error that stopped the run.
	Err error
}

// NewRun creates the state of a run over specs.
func NewRun(id, source, taskSheet string, specs []SheetSpec, started time.Time) *Run {
	sheets := make([]SheetResult, len(specs))
	for i, spec := range specs {
		sheets[i] = SheetResult{Spec: spec, SheetID: spec.FallbackID}
	}
	return &Run{
		ID:        id,
		Source:    source,
		TaskSheet: taskSheet,
		StartedAt: started,
		Sheets:    sheets,
	}
}

// ManualTasks returns the number of operator-created tasks.
func (r *Run) ManualTasks() int {
	n := 0
	for _, t := range r.Tasks {
		if t.IsManual {
			n++
		}
	}
	return n
}

// FailedSheets returns the tabs that could not be read.
func (r *Run) FailedSheets() []SheetResult {
	var failed []SheetResult
	for _, s := range r.Sheets {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
