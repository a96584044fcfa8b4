package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/planeta/qualitycheck/internal/config"
	"github.com/planeta/qualitycheck/internal/database"
	"github.com/planeta/qualitycheck/internal/model"
	"github.com/planeta/qualitycheck/internal/report"
	"github.com/planeta/qualitycheck/internal/tasklist"
)

// historyTimeLayout is used for run timestamps in listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs and compare their task lists",
		Long: `History reads the run history database and shows how the task list changed.

By default the latest run is compared with the run before it:
- New tasks that appeared
- Resolved tasks that are gone
- The number of tasks left unchanged

Examples:
  # Compare the latest two runs
  qualitycheck history

  # List the last 20 runs
  qualitycheck history --list --limit 20

  # Compare a specific run with the one before it
  qualitycheck history --with-run-id 6f1c...

  # Output comparison in JSON format
  qualitycheck history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List recorded runs instead of comparing")
	cmd.Flags().IntP("limit", "n", 10,
		"Number of runs listed (0 lists all)")
	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare this run with the one before it (use --list to see available IDs)")
	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default XDG data directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output result in Markdown format")

	return cmd
}

// historyOptions are the parsed flags of the history command.
type historyOptions struct {
	list     bool
	limit    int
	runID    string
	json     bool
	markdown bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var opts historyOptions
	var err error
	flags := cmd.Flags()
	if opts.list, err = flags.GetBool("list"); err != nil {
		return err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return err
	}
	if opts.runID, err = flags.GetString("with-run-id"); err != nil {
		return err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		cfg, err := config.Load(getGlobalString(cmd, "config"), getGlobalString(cmd, "env-file"))
		if err != nil {
			return err
		}
		dbDir = cfg.DBDir
	}

	// Reading history never creates the database.
	dbOpts := database.DefaultOptions()
	dbOpts.CreateIfNotExists = false
	db, err := database.Open(dbDir, dbOpts)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'qualitycheck run' to check the journals.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), cmd.OutOrStdout(), db, opts)
}

// runHistory lists runs or compares two of them.
func runHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, opts historyOptions) error {
	if opts.list {
		runs, err := db.ListRuns(ctx, opts.limit)
		if err != nil {
			return err
		}
		if opts.json {
			_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
			return err
		}
		return listRuns(out, runs)
	}

	result, err := compareRuns(ctx, db, opts.runID)
	if err != nil {
		return err
	}
	switch {
	case opts.json:
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(result)
	case opts.markdown:
		err = outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
	}
	return err
}

// listRuns prints one line per run.
func listRuns(out io.Writer, runs []database.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Recorded runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %8s  %6s  %6s\n", "ID", "Started", "Backend", "Findings", "Tasks", "Manual")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 92))
	for _, r := range runs {
		marker := ""
		if r.DryRun {
			marker = "  (dry run)"
		}
		fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %8d  %6d  %6d%s\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.Backend,
			r.Findings,
			r.Tasks,
			r.Manual,
			marker,
		)
	}

	fmt.Fprintln(out, "\nUse 'qualitycheck history' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'qualitycheck history --with-run-id <id>' to compare a specific run.")
	return nil
}

// RunMetadata describes one side of a comparison.
type RunMetadata struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Findings  int       `json:"findings"`
	Tasks     int       `json:"tasks"`
	Manual    int       `json:"manual"`
}

// ComparisonResult holds the result of comparing the task lists of two runs.
type ComparisonResult struct {
	Source string `json:"source"`

	PreviousRun RunMetadata `json:"previous_run"`
	CurrentRun  RunMetadata `json:"current_run"`

	// NewTasks are in the current task list only.
	NewTasks []model.ReportItem `json:"new_tasks,omitempty"`

	// ResolvedTasks were in the previous task list only.
	ResolvedTasks []model.ReportItem `json:"resolved_tasks,omitempty"`

	UnchangedCount int `json:"unchanged_count"`
}

func metadata(r *database.Run) RunMetadata {
	return RunMetadata{
		ID:        r.ID,
		StartedAt: r.StartedAt,
		Findings:  r.Findings,
		Tasks:     r.Tasks,
		Manual:    r.Manual,
	}
}

// compareRuns compares the run runID, or the latest run when runID is
// empty, with the run before it.
func compareRuns(ctx context.Context, db *database.HistoryDB, runID string) (*ComparisonResult, error) {
	var current *database.Run
	if runID != "" {
		r, err := db.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		current = r
	} else {
		runs, err := db.ListRuns(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, errors.New("no runs recorded yet")
		}
		current = &runs[0]
	}

	previous, err := db.PreviousRun(ctx, current.ID)
	if errors.Is(err, database.ErrRunNotFound) {
		return nil, fmt.Errorf("at least 2 runs are required for comparison: %w", err)
	}
	if err != nil {
		return nil, err
	}

	currentTasks, err := db.GetRunTasks(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	previousTasks, err := db.GetRunTasks(ctx, previous.ID)
	if err != nil {
		return nil, err
	}

	diff := tasklist.Diff(previousTasks, currentTasks)
	return &ComparisonResult{
		Source:         current.Spreadsheet,
		PreviousRun:    metadata(previous),
		CurrentRun:     metadata(current),
		NewTasks:       diff.New,
		ResolvedTasks:  diff.Resolved,
		UnchangedCount: diff.Unchanged,
	}, nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "Task list comparison: %s\n", result.Source)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious run: %s  %s\n", result.PreviousRun.StartedAt.Local().Format(historyTimeLayout), result.PreviousRun.ID)
	fmt.Fprintf(out, "Current run:  %s  %s\n", result.CurrentRun.StartedAt.Local().Format(historyTimeLayout), result.CurrentRun.ID)

	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Findings",
		result.PreviousRun.Findings, result.CurrentRun.Findings,
		formatDelta(result.CurrentRun.Findings-result.PreviousRun.Findings))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Tasks",
		result.PreviousRun.Tasks, result.CurrentRun.Tasks,
		formatDelta(result.CurrentRun.Tasks-result.PreviousRun.Tasks))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Manual",
		result.PreviousRun.Manual, result.CurrentRun.Manual,
		formatDelta(result.CurrentRun.Manual-result.PreviousRun.Manual))

	if len(result.NewTasks) > 0 {
		fmt.Fprintf(out, "\nNew tasks (%d):\n", len(result.NewTasks))
		for _, t := range result.NewTasks {
			fmt.Fprintf(out, "  [+] %s / %s: %s (%s)\n", t.Sheet, t.ErrorColumn, t.Description, t.Admin)
		}
	}

	if len(result.ResolvedTasks) > 0 {
		fmt.Fprintf(out, "\nResolved tasks (%d):\n", len(result.ResolvedTasks))
		for _, t := range result.ResolvedTasks {
			fmt.Fprintf(out, "  [-] %s / %s: %s\n", t.Sheet, t.ErrorColumn, t.Description)
		}
	}

	fmt.Fprintf(out, "\nUnchanged: %d tasks\n", result.UnchangedCount)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Task list comparison: " + result.Source)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date",
				result.PreviousRun.StartedAt.Local().Format("2006-01-02 15:04"),
				result.CurrentRun.StartedAt.Local().Format("2006-01-02 15:04"),
				"-"},
			{"Findings",
				strconv.Itoa(result.PreviousRun.Findings),
				strconv.Itoa(result.CurrentRun.Findings),
				formatDelta(result.CurrentRun.Findings - result.PreviousRun.Findings)},
			{"Tasks",
				strconv.Itoa(result.PreviousRun.Tasks),
				strconv.Itoa(result.CurrentRun.Tasks),
				formatDelta(result.CurrentRun.Tasks - result.PreviousRun.Tasks)},
		},
	})
	md.PlainText("")

	if len(result.NewTasks) > 0 {
		md.H2("New tasks (" + strconv.Itoa(len(result.NewTasks)) + ")")
		md.PlainText("")
		items := make([]string, len(result.NewTasks))
		for i, t := range result.NewTasks {
			items[i] = "**" + t.Sheet + " / " + t.ErrorColumn + "**: " + t.Description
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.ResolvedTasks) > 0 {
		md.H2("Resolved tasks (" + strconv.Itoa(len(result.ResolvedTasks)) + ")")
		md.PlainText("")
		items := make([]string, len(result.ResolvedTasks))
		for i, t := range result.ResolvedTasks {
			items[i] = "~~" + t.Sheet + " / " + t.ErrorColumn + ": " + t.Description + "~~"
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainTextf("*%d tasks unchanged*", result.UnchangedCount)

	return md.Build()
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
