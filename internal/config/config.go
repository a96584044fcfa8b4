package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/planeta/qualitycheck/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "qualitycheck"

	// DefaultSalesSheet is the tab name of the sales journal.
	DefaultSalesSheet = "Продажи"

	// DefaultTrainingsSheet is the tab name of the schedule.
	DefaultTrainingsSheet = "Тренировки"

	// DefaultLeadsSheet is the tab name of the inquiries journal.
	DefaultLeadsSheet = "Обращения"

	// DefaultReportSheet is the tab the task list is written to.
	DefaultReportSheet = "Задачи"

	// DefaultCredentialsFile is the service account key used for the Sheets API.
	DefaultCredentialsFile = "secrets/service_account.json"

	// DefaultLogLevel is the minimum level logged without --verbose.
	DefaultLogLevel = "INFO"

	// DefaultMaxAttempts bounds calls to the data source, first try included.
	DefaultMaxAttempts = 5

	// DefaultInitialDelay is the wait before the first retry. It doubles on
	// every further attempt.
	DefaultInitialDelay = 1 * time.Second

	// DefaultMaxDelay caps the wait between retries.
	DefaultMaxDelay = 32 * time.Second

	// DefaultRequestTimeout bounds a whole run against the data source.
	DefaultRequestTimeout = 300 * time.Second

	// DefaultConcurrency is the number of sheets read and validated at once.
	DefaultConcurrency = 3
)

// Backend names the data source holding the audited sheets.
type Backend string

const (
	// BackendSheets reads and writes a Google spreadsheet.
	BackendSheets Backend = "sheets"

	// BackendXLSX reads and writes a local Excel workbook.
	BackendXLSX Backend = "xlsx"
)

// SheetConfig describes one audited tab.
type SheetConfig struct {
	// Name is the tab name.
	Name string `yaml:"name,omitempty"`

	// Range is the A1 range read from the tab; the first row of the range
	// is the header.
	Range string `yaml:"range,omitempty"`

	// Unformatted reads raw cell values instead of their display text.
	Unformatted bool `yaml:"unformatted,omitempty"`

	// FallbackID is the numeric tab id used in links when the data source
	// cannot resolve Name.
	FallbackID int64 `yaml:"fallbackId,omitempty"`

	// Required lists the columns that must exist in the header.
	Required []string `yaml:"required,omitempty"`
}

// RetryConfig controls the backoff applied to data source calls.
type RetryConfig struct {
	// MaxAttempts is the total number of tries per call.
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration `yaml:"initialDelay,omitempty"`

	// MaxDelay caps the wait between retries.
	MaxDelay time.Duration `yaml:"maxDelay,omitempty"`
}

// Config holds all options of a quality check run.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed explicitly to the components.
type Config struct {
	// Backend selects the data source.
	Backend Backend

	// SpreadsheetID is the Google spreadsheet holding every tab.
	// Required for BackendSheets.
	SpreadsheetID string

	// CredentialsFile is the service account JSON key.
	CredentialsFile string

	// Workbook is the path of the Excel file. Required for BackendXLSX.
	Workbook string

	// Sales, Trainings and Leads describe the audited tabs.
	Sales     SheetConfig
	Trainings SheetConfig
	Leads     SheetConfig

	// ReportSheet is the tab holding the task list.
	ReportSheet string

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string

	// Verbose forces debug logging.
	Verbose bool

	// LogJSON switches the log output to JSON lines.
	LogJSON bool

	// Retry controls the backoff of data source calls.
	Retry RetryConfig

	// RequestTimeout bounds the whole run against the data source.
	RequestTimeout time.Duration

	// Concurrency is the number of sheets processed at once.
	Concurrency int

	// DryRun validates and reconciles without writing the task list.
	DryRun bool

	// DBDir is the directory of the run history database.
	// Defaults to XDG data directory (~/.local/share/qualitycheck on Linux).
	DBDir string

	// SaveToDB records every run in the history database.
	SaveToDB bool

	// JSONReport prints the run summary as JSON.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	MarkdownReport bool

	// ReportFile writes the run summary to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is the configuration file given on the command line.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// EnvFile is the dotenv file loaded before reading the environment.
	EnvFile string
}

// DefaultSalesRequired lists the columns every sales row is checked against.
func DefaultSalesRequired() []string {
	return []string{
		"Дата", "Клиент", "Продукт", "Тип", "Категория", "Количество",
		"Полная стоимость", "Скидка", "Окончательная стоимость",
		"Наличные", "Перевод", "Терминал", "Вдолг",
		"Админ", "Тренер", "Комментарий", "Бонус админа", "Бонус тренера",
		"Пробили на эвоторе", "Внесли в CRM",
	}
}

// DefaultTrainingsRequired lists the columns of every schedule row.
func DefaultTrainingsRequired() []string {
	return []string{"Дата", "Начало", "Конец", "Сотрудник", "Тип", "Замена?"}
}

// DefaultLeadsRequired lists the columns needed to register a lead.
func DefaultLeadsRequired() []string {
	return []string{"Дата обращения", "Запрос при обращении", "Админ (создал лида)"}
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Backend:         BackendSheets,
		CredentialsFile: DefaultCredentialsFile,
		Sales: SheetConfig{
			Name:        DefaultSalesSheet,
			Range:       "A2:T",
			Unformatted: true,
			FallbackID:  623132210,
			Required:    DefaultSalesRequired(),
		},
		Trainings: SheetConfig{
			Name:       DefaultTrainingsSheet,
			Range:      "A1:L",
			FallbackID: 1856560934,
			Required:   DefaultTrainingsRequired(),
		},
		Leads: SheetConfig{
			Name:     DefaultLeadsSheet,
			Range:    "A2:V",
			Required: DefaultLeadsRequired(),
		},
		ReportSheet: DefaultReportSheet,
		LogLevel:    DefaultLogLevel,
		Retry: RetryConfig{
			MaxAttempts:  DefaultMaxAttempts,
			InitialDelay: DefaultInitialDelay,
			MaxDelay:     DefaultMaxDelay,
		},
		RequestTimeout: DefaultRequestTimeout,
		Concurrency:    DefaultConcurrency,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
		EnvFile:        ".env",
	}
}

// Sheet returns the tab configuration of the given kind.
func (c *Config) Sheet(kind model.SheetKind) SheetConfig {
	switch kind {
	case model.SheetSales:
		return c.Sales
	case model.SheetTrainings:
		return c.Trainings
	case model.SheetLeads:
		return c.Leads
	default:
		return SheetConfig{}
	}
}

// SheetOrder returns the audited tab names in task list priority order.
func (c *Config) SheetOrder() []string {
	return []string{c.Sales.Name, c.Trainings.Name, c.Leads.Name}
}

// XDGDataDir returns the XDG data directory for qualitycheck.
// On Linux: ~/.local/share/qualitycheck
// On macOS: ~/Library/Application Support/qualitycheck
// On Windows: %LOCALAPPDATA%\qualitycheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for qualitycheck.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for qualitycheck.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// validLogLevels are the accepted LogLevel values.
var validLogLevels = []string{"DEBUG", "INFO", "WARN", "WARNING", "ERROR"}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return ErrNoSpreadsheet
		}
	case BackendXLSX:
		if c.Workbook == "" {
			return ErrNoWorkbook
		}
	default:
		return ErrUnknownBackend
	}

	for _, kind := range model.SheetKinds() {
		s := c.Sheet(kind)
		if s.Name == "" {
			return ErrEmptySheetName
		}
		if len(s.Required) == 0 {
			return ErrEmptyRequiredColumns
		}
	}
	if c.ReportSheet == "" {
		return ErrEmptySheetName
	}

	if !slices.Contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		return ErrInvalidLogLevel
	}

	if c.Retry.MaxAttempts <= 0 || c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < c.Retry.InitialDelay {
		return ErrInvalidRetry
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
