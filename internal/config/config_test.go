package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/planeta/qualitycheck/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default backend is sheets", func(t *testing.T) {
		t.Parallel()
		if cfg.Backend != BackendSheets {
			t.Errorf("expected Backend to be sheets, got %q", cfg.Backend)
		}
	})

	t.Run("default sheet names", func(t *testing.T) {
		t.Parallel()
		if cfg.Sales.Name != "Продажи" || cfg.Trainings.Name != "Тренировки" || cfg.Leads.Name != "Обращения" {
			t.Errorf("unexpected sheet names %q %q %q", cfg.Sales.Name, cfg.Trainings.Name, cfg.Leads.Name)
		}
		if cfg.ReportSheet != "Задачи" {
			t.Errorf("expected ReportSheet to be Задачи, got %q", cfg.ReportSheet)
		}
	})

	t.Run("default ranges", func(t *testing.T) {
		t.Parallel()
		if cfg.Sales.Range != "A2:T" || !cfg.Sales.Unformatted {
			t.Errorf("unexpected sales range %+v", cfg.Sales)
		}
		if cfg.Trainings.Range != "A1:L" || cfg.Trainings.Unformatted {
			t.Errorf("unexpected trainings range %+v", cfg.Trainings)
		}
		if cfg.Leads.Range != "A2:V" {
			t.Errorf("unexpected leads range %+v", cfg.Leads)
		}
	})

	t.Run("default fallback ids", func(t *testing.T) {
		t.Parallel()
		if cfg.Sales.FallbackID != 623132210 || cfg.Trainings.FallbackID != 1856560934 || cfg.Leads.FallbackID != 0 {
			t.Errorf("unexpected fallback ids %d %d %d",
				cfg.Sales.FallbackID, cfg.Trainings.FallbackID, cfg.Leads.FallbackID)
		}
	})

	t.Run("default required columns", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Sales.Required) != 20 {
			t.Errorf("expected 20 sales columns, got %d", len(cfg.Sales.Required))
		}
		if len(cfg.Trainings.Required) != 6 {
			t.Errorf("expected 6 trainings columns, got %d", len(cfg.Trainings.Required))
		}
		if len(cfg.Leads.Required) != 3 {
			t.Errorf("expected 3 leads columns, got %d", len(cfg.Leads.Required))
		}
	})

	t.Run("default retry policy", func(t *testing.T) {
		t.Parallel()
		if cfg.Retry.MaxAttempts != 5 || cfg.Retry.InitialDelay != time.Second || cfg.Retry.MaxDelay != 32*time.Second {
			t.Errorf("unexpected retry policy %+v", cfg.Retry)
		}
	})

	t.Run("default credentials and log level", func(t *testing.T) {
		t.Parallel()
		if cfg.CredentialsFile != "secrets/service_account.json" {
			t.Errorf("unexpected CredentialsFile %q", cfg.CredentialsFile)
		}
		if cfg.LogLevel != "INFO" {
			t.Errorf("unexpected LogLevel %q", cfg.LogLevel)
		}
	})

	t.Run("history is on by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB || cfg.DBDir == "" {
			t.Errorf("expected history enabled in XDG dir, got %v %q", cfg.SaveToDB, cfg.DBDir)
		}
	})
}

// TestNewConfigIndependentSlices tests that defaults are not shared between configs.
func TestNewConfigIndependentSlices(t *testing.T) {
	t.Parallel()

	a := NewConfig()
	b := NewConfig()
	a.Sales.Required[0] = "changed"
	if b.Sales.Required[0] != "Дата" {
		t.Error("required columns should not be shared between configs")
	}
}

// TestConfigSheet tests lookups by sheet kind.
func TestConfigSheet(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.Sheet(model.SheetTrainings).Name != "Тренировки" {
		t.Error("expected trainings sheet")
	}
	if cfg.Sheet(model.SheetKind("other")).Name != "" {
		t.Error("expected empty config for unknown kind")
	}

	order := cfg.SheetOrder()
	if len(order) != 3 || order[0] != "Продажи" || order[2] != "Обращения" {
		t.Errorf("unexpected order %v", order)
	}
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.SpreadsheetID = "doc"
		return cfg
	}

	testCases := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"missing spreadsheet", func(c *Config) { c.SpreadsheetID = "" }, ErrNoSpreadsheet},
		{"xlsx without workbook", func(c *Config) { c.Backend = BackendXLSX }, ErrNoWorkbook},
		{"xlsx with workbook", func(c *Config) { c.Backend = BackendXLSX; c.Workbook = "book.xlsx"; c.SpreadsheetID = "" }, nil},
		{"unknown backend", func(c *Config) { c.Backend = "csv" }, ErrUnknownBackend},
		{"empty sheet name", func(c *Config) { c.Leads.Name = "" }, ErrEmptySheetName},
		{"empty report sheet", func(c *Config) { c.ReportSheet = "" }, ErrEmptySheetName},
		{"no required columns", func(c *Config) { c.Trainings.Required = nil }, ErrEmptyRequiredColumns},
		{"lowercase log level", func(c *Config) { c.LogLevel = "debug" }, nil},
		{"unknown log level", func(c *Config) { c.LogLevel = "TRACE" }, ErrInvalidLogLevel},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, ErrInvalidRetry},
		{"inverted delays", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, ErrInvalidRetry},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, ErrInvalidTimeout},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"both report formats", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.qualitycheck.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads and applies valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `spreadsheetId: "1AbC"
credentialsFile: /etc/qc/key.json
reportSheet: Tasks
logLevel: DEBUG
saveToDb: false
concurrency: 2
requestTimeout: 90s
retry:
  maxAttempts: 3
  initialDelay: 500ms
sheets:
  sales:
    name: Sales
    unformatted: false
  leads:
    fallbackId: 17
    required:
      - Дата обращения
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		f, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		f.Apply(cfg)

		if cfg.SpreadsheetID != "1AbC" || cfg.CredentialsFile != "/etc/qc/key.json" {
			t.Errorf("unexpected source settings %q %q", cfg.SpreadsheetID, cfg.CredentialsFile)
		}
		if cfg.ReportSheet != "Tasks" || cfg.LogLevel != "DEBUG" {
			t.Errorf("unexpected report/log settings %q %q", cfg.ReportSheet, cfg.LogLevel)
		}
		if cfg.SaveToDB {
			t.Error("expected saveToDb: false to disable history")
		}
		if cfg.Concurrency != 2 || cfg.RequestTimeout != 90*time.Second {
			t.Errorf("unexpected concurrency/timeout %d %v", cfg.Concurrency, cfg.RequestTimeout)
		}
		if cfg.Retry.MaxAttempts != 3 || cfg.Retry.InitialDelay != 500*time.Millisecond || cfg.Retry.MaxDelay != DefaultMaxDelay {
			t.Errorf("unexpected retry %+v", cfg.Retry)
		}
		if cfg.Sales.Name != "Sales" || cfg.Sales.Unformatted || cfg.Sales.Range != "A2:T" {
			t.Errorf("unexpected sales %+v", cfg.Sales)
		}
		if cfg.Leads.FallbackID != 17 || len(cfg.Leads.Required) != 1 {
			t.Errorf("unexpected leads %+v", cfg.Leads)
		}
		if cfg.Trainings.Name != DefaultTrainingsSheet {
			t.Errorf("trainings should keep defaults, got %+v", cfg.Trainings)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("backend: sheets\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestApplyEnv tests environment overrides.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}

	t.Run("prefixed variables", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(env(map[string]string{
			"QC_SPREADSHEET_ID":   "sheet-1",
			"QC_CREDENTIALS_FILE": "key.json",
			"QC_LOG_LEVEL":        "WARN",
			"QC_BACKEND":          "xlsx",
			"QC_WORKBOOK":         "book.xlsx",
			"QC_DB_DIR":           "/tmp/qc",
			"QC_CONCURRENCY":      "1",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SpreadsheetID != "sheet-1" || cfg.CredentialsFile != "key.json" || cfg.LogLevel != "WARN" {
			t.Errorf("unexpected config %+v", cfg)
		}
		if cfg.Backend != BackendXLSX || cfg.Workbook != "book.xlsx" || cfg.DBDir != "/tmp/qc" || cfg.Concurrency != 1 {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("legacy names", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ApplyEnv(env(map[string]string{
			"SPREADSHEET_ID":       "legacy",
			"SERVICE_ACCOUNT_FILE": "legacy.json",
		})); err != nil {
			t.Fatal(err)
		}
		if cfg.SpreadsheetID != "legacy" || cfg.CredentialsFile != "legacy.json" {
			t.Errorf("unexpected config %q %q", cfg.SpreadsheetID, cfg.CredentialsFile)
		}
	})

	t.Run("prefixed wins", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ApplyEnv(env(map[string]string{
			"SPREADSHEET_ID":    "legacy",
			"QC_SPREADSHEET_ID": "new",
		})); err != nil {
			t.Fatal(err)
		}
		if cfg.SpreadsheetID != "new" {
			t.Errorf("expected QC_ variable to win, got %q", cfg.SpreadsheetID)
		}
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(env(map[string]string{"QC_CONCURRENCY": "many"}))
		if !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})
}

// TestLoadEnvFile tests dotenv loading.
func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("empty path should be ignored, got %v", err)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("QC_TEST_DOTENV_VALUE=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QC_TEST_DOTENV_VALUE", "")
	os.Unsetenv("QC_TEST_DOTENV_VALUE") //nolint:errcheck // restored by t.Setenv

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("QC_TEST_DOTENV_VALUE"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
}

// TestLoad tests the layered load with an explicit file.
func TestLoad(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("file then environment", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "qc.yaml")
		if err := os.WriteFile(path, []byte("spreadsheetId: from-file\nlogLevel: ERROR\n"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("QC_LOG_LEVEL", "DEBUG")
		t.Setenv("QC_SPREADSHEET_ID", "")

		cfg, err := Load(path, filepath.Join(dir, "absent.env"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SpreadsheetID != "from-file" {
			t.Errorf("SpreadsheetID = %q", cfg.SpreadsheetID)
		}
		if cfg.LogLevel != "DEBUG" {
			t.Errorf("LogLevel = %q, expected environment to win", cfg.LogLevel)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("ConfigFilePath = %q", cfg.ConfigFilePath)
		}
	})
}
