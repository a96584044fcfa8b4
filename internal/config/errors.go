package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still printing a human-readable message.
var (
	// ErrNoSpreadsheet is returned when the sheets backend has no spreadsheet id.
	ErrNoSpreadsheet = errors.New("no spreadsheet specified: set spreadsheetId, QC_SPREADSHEET_ID or --spreadsheet")

	// ErrNoWorkbook is returned when the xlsx backend has no workbook path.
	ErrNoWorkbook = errors.New("no workbook specified: set workbook, QC_WORKBOOK or --workbook")

	// ErrUnknownBackend is returned for a backend other than sheets or xlsx.
	ErrUnknownBackend = errors.New("unknown backend: must be sheets or xlsx")

	// ErrEmptySheetName is returned when an audited or report tab has no name.
	ErrEmptySheetName = errors.New("invalid sheet name: must not be empty")

	// ErrEmptyRequiredColumns is returned when a tab has no required columns.
	// Without them the header check cannot tell the tab apart from any other.
	ErrEmptyRequiredColumns = errors.New("invalid required columns: list must not be empty")

	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level: must be DEBUG, INFO, WARN or ERROR")

	// ErrInvalidRetry is returned when the retry policy cannot make progress.
	ErrInvalidRetry = errors.New("invalid retry policy: attempts must be positive and delays ordered")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
