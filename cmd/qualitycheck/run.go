package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/planeta/qualitycheck/internal/config"
	"github.com/planeta/qualitycheck/internal/database"
	qclog "github.com/planeta/qualitycheck/internal/log"
	"github.com/planeta/qualitycheck/internal/pipeline"
	"github.com/planeta/qualitycheck/internal/report"
	"github.com/planeta/qualitycheck/internal/retry"
	"github.com/planeta/qualitycheck/internal/store"
	"github.com/planeta/qualitycheck/internal/store/gsheets"
	"github.com/planeta/qualitycheck/internal/store/xlsx"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate the journals and update the task list",
		Long: `Run reads the sales, schedule and inquiry sheets, checks every row and
rewrites the task list with the problems found.

Tasks of the previous run that are fixed are removed, tasks that remain keep
their creation date, and tasks added by hand are never touched.

Examples:
  # Check the spreadsheet from .qualitycheck.yaml
  qualitycheck run

  # Validate without writing the task list
  qualitycheck run --dry-run

  # Check a local Excel export
  qualitycheck run --backend xlsx --workbook journals.xlsx

  # Post a Markdown summary to a file
  qualitycheck run --markdown -o reports/today.md`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	// Data source flags
	cmd.Flags().StringP("backend", "b", "",
		"Data source: sheets or xlsx (default sheets)")
	cmd.Flags().StringP("spreadsheet", "s", "",
		"Google spreadsheet id")
	cmd.Flags().String("credentials", "",
		"Service account JSON key (default secrets/service_account.json)")
	cmd.Flags().StringP("workbook", "w", "",
		"Excel workbook used by the xlsx backend")

	// Run behavior flags
	cmd.Flags().BoolP("dry-run", "n", false,
		"Validate and reconcile without writing the task list")
	cmd.Flags().Int("concurrency", 0,
		"Number of sheets read at once (default 3)")
	cmd.Flags().DurationP("timeout", "t", 0,
		"Upper bound for the whole run (default 5m)")

	// History flags
	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default XDG data directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("all", "a", false,
		"List every open task in the text report, not only new ones")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	allTasks, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cmd.OutOrStdout(), cfg, logger, allTasks)
}

// getGlobalBool retrieves a persistent flag from the command or the root.
func getGlobalBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getGlobalString retrieves a persistent flag from the command or the root.
func getGlobalString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// buildConfig loads the configuration and applies the flags the user set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getGlobalString(cmd, "config"), getGlobalString(cmd, "env-file"))
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getGlobalBool(cmd, "verbose")
	cfg.LogJSON = getGlobalBool(cmd, "log-json")

	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"spreadsheet": &cfg.SpreadsheetID,
		"credentials": &cfg.CredentialsFile,
		"workbook":    &cfg.Workbook,
		"db-dir":      &cfg.DBDir,
		"output":      &cfg.ReportFile,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("backend") {
		backend, err := flags.GetString("backend")
		if err != nil {
			return nil, err
		}
		cfg.Backend = config.Backend(backend)
	}

	boolFlags := map[string]*bool{
		"dry-run":  &cfg.DryRun,
		"json":     &cfg.JSONReport,
		"markdown": &cfg.MarkdownReport,
	}
	for name, dst := range boolFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noHistory
	}

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.RequestTimeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// setupLogger creates the redacting logger selected by cfg.
func setupLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := qclog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return qclog.New(w, qclog.Options{
		Level:   level,
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
	}), nil
}

// openStore connects to the data source selected by cfg. The returned
// function releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendXLSX:
		wb, err := xlsx.Open(cfg.Workbook, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		return wb, wb.Close, nil
	case config.BackendSheets:
		client, err := gsheets.New(ctx, cfg.SpreadsheetID,
			gsheets.WithCredentialsFile(cfg.CredentialsFile),
			gsheets.WithRetry(retry.Policy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				Initial:     cfg.Retry.InitialDelay,
				Max:         cfg.Retry.MaxDelay,
			}),
			gsheets.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Google Sheets: %w", err)
		}
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// runAudit executes one audit and reports it. The run is recorded in the
// history database only when it completed.
func runAudit(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, allTasks bool) error {
	st, release, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Error("failed to close data source", "error", err)
		}
	}()

	auditor := pipeline.NewAuditor(st, cfg, pipeline.WithAuditorLogger(logger))
	run, runErr := auditor.Run(ctx)

	if runErr == nil {
		if err := saveRun(ctx, cfg, run, logger); err != nil {
			logger.Error("failed to save run", "run", run.ID, "error", err)
		}
	}

	if err := outputReport(out, cfg, report.NewSummary(run), allTasks); err != nil {
		logger.Error("report failed", "run", run.ID, "error", err)
		if runErr == nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("audit failed: %w", runErr)
	}
	return nil
}

// historyRecord converts a finished run into its stored form.
func historyRecord(cfg *config.Config, run *pipeline.Run) *database.Run {
	rec := &database.Run{
		ID:          run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Backend:     string(cfg.Backend),
		Spreadsheet: run.Source,
		DryRun:      run.DryRun,
		Findings:    len(run.Findings),
		Tasks:       len(run.Tasks),
		Manual:      run.ManualTasks(),
	}
	for _, sr := range run.Sheets {
		s := database.SheetSummary{
			Name:     sr.Spec.Name,
			Rows:     sr.Rows,
			Findings: len(sr.Findings),
		}
		if sr.Err != nil {
			s.Error = sr.Err.Error()
		}
		rec.Sheets = append(rec.Sheets, s)
	}
	return rec
}

// saveRun records the run in the history database if enabled.
func saveRun(ctx context.Context, cfg *config.Config, run *pipeline.Run, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SaveRun(ctx, historyRecord(cfg, run), run.Tasks); err != nil {
		return err
	}
	logger.Info("run saved to history", "run", run.ID, "db", db.Path())
	return nil
}

// outputReport writes the summary in the requested format to out or to
// cfg.ReportFile.
func outputReport(out io.Writer, cfg *config.Config, summary *report.Summary, allTasks bool) (err error) {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports name staff and customers, so only the owner may read them.
		f, openErr := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if openErr != nil {
			return fmt.Errorf("failed to create output file: %w", openErr)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewTextWriter(out, report.WithVerbose(allTasks))
	}
	_, err = w.Write(summary)
	return err
}
