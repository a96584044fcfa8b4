package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/planeta/qualitycheck/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "qualitycheck.db"

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// ErrDatabaseNotFound is returned by Open when the file does not exist and
// creation was not requested.
var ErrDatabaseNotFound = errors.New("database not found")

// timestampLayout is fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB stores audit runs and their task lists.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per audit run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		backend TEXT NOT NULL,
		spreadsheet TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		findings INTEGER NOT NULL DEFAULT 0,
		tasks INTEGER NOT NULL DEFAULT 0,
		manual INTEGER NOT NULL DEFAULT 0,
		sheets_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- The task list as written by a run, in sheet order
	CREATE TABLE IF NOT EXISTS run_tasks (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		uid TEXT NOT NULL,
		is_manual INTEGER NOT NULL DEFAULT 0,
		created_date TEXT,
		sheet TEXT,
		error_column TEXT,
		admin TEXT,
		description TEXT,
		link TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_run_tasks_uid ON run_tasks(uid);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SheetSummary is the outcome of one audited sheet within a run.
type SheetSummary struct {
	// Name is the tab name.
	Name string `json:"name"`

	// Rows is the number of data rows read.
	Rows int `json:"rows"`

	// Findings is the number of findings produced.
	Findings int `json:"findings"`

	// Error is the read failure, if the sheet was skipped.
	Error string `json:"error,omitempty"`
}

// Run is a stored audit run.
type Run struct {
	ID          string         `json:"id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Backend     string         `json:"backend"`
	Spreadsheet string         `json:"spreadsheet"`
	DryRun      bool           `json:"dry_run"`
	Findings    int            `json:"findings"`
	Tasks       int            `json:"tasks"`
	Manual      int            `json:"manual"`
	Sheets      []SheetSummary `json:"sheets"`
}

// SaveRun stores run together with the task list it produced.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *Run, tasks []model.ReportItem) error {
	sheetsJSON, err := json.Marshal(run.Sheets)
	if err != nil {
		return fmt.Errorf("failed to serialize sheet summaries: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, finished_at, backend, spreadsheet, dry_run, findings, tasks, manual, sheets_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.Backend,
		run.Spreadsheet,
		run.DryRun,
		run.Findings,
		run.Tasks,
		run.Manual,
		string(sheetsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_tasks (run_id, position, uid, is_manual, created_date, sheet, error_column, admin, description, link)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare task insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range tasks {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, item.UID, item.IsManual, item.CreatedDate,
			item.Sheet, item.ErrorColumn, item.Admin, item.Description, item.Link,
		); err != nil {
			return fmt.Errorf("failed to save task %s: %w", item.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, backend, spreadsheet, dry_run, findings, tasks, manual, sheets_json`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run               Run
		started, finished string
		sheetsJSON        sql.NullString
	)
	if err := s.Scan(&run.ID, &started, &finished, &run.Backend, &run.Spreadsheet,
		&run.DryRun, &run.Findings, &run.Tasks, &run.Manual, &sheetsJSON); err != nil {
		return nil, err
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	if sheetsJSON.Valid && sheetsJSON.String != "" {
		if err := json.Unmarshal([]byte(sheetsJSON.String), &run.Sheets); err != nil {
			run.Sheets = nil
		}
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id.
func (hdb *HistoryDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := hdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// PreviousRun returns the run started right before the run with the given
// id. It returns ErrRunNotFound when id is the first run.
func (hdb *HistoryDB) PreviousRun(ctx context.Context, id string) (*Run, error) {
	current, err := hdb.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	row := hdb.db.QueryRowContext(ctx, `
	SELECT `+runColumns+` FROM runs
	WHERE started_at < ? OR (started_at = ? AND rowid < (SELECT rowid FROM runs WHERE id = ?))
	ORDER BY started_at DESC, rowid DESC
	LIMIT 1
	`, formatTimestamp(current.StartedAt), formatTimestamp(current.StartedAt), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no run before %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get previous run: %w", err)
	}
	return run, nil
}

// GetRunTasks returns the task list written by the run, in sheet order.
func (hdb *HistoryDB) GetRunTasks(ctx context.Context, id string) ([]model.ReportItem, error) {
	if _, err := hdb.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := hdb.db.QueryContext(ctx, `
	SELECT uid, is_manual, created_date, sheet, error_column, admin, description, link
	FROM run_tasks
	WHERE run_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer rows.Close()

	var items []model.ReportItem
	for rows.Next() {
		var item model.ReportItem
		var created, sheet, column, admin, description, link sql.NullString
		if err := rows.Scan(&item.UID, &item.IsManual, &created, &sheet, &column, &admin, &description, &link); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		item.CreatedDate = created.String
		item.Sheet = sheet.String
		item.ErrorColumn = column.String
		item.Admin = admin.String
		item.Description = description.String
		item.Link = link.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
