package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".qualitycheck.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .qualitycheck.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .qualitycheck.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are not overwritten. A missing file
// is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// envKeys maps each environment override to the names it is read from.
// The unprefixed names are accepted for existing .env files.
var envKeys = struct {
	spreadsheet, credentials, logLevel, backend, workbook, dbDir, concurrency []string
}{
	spreadsheet: []string{"QC_SPREADSHEET_ID", "SPREADSHEET_ID"},
	credentials: []string{"QC_CREDENTIALS_FILE", "SERVICE_ACCOUNT_FILE"},
	logLevel:    []string{"QC_LOG_LEVEL", "LOG_LEVEL"},
	backend:     []string{"QC_BACKEND"},
	workbook:    []string{"QC_WORKBOOK"},
	dbDir:       []string{"QC_DB_DIR"},
	concurrency: []string{"QC_CONCURRENCY"},
}

// ApplyEnv overrides the values of c from environment variables.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(keys []string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	if v, ok := get(envKeys.spreadsheet); ok {
		c.SpreadsheetID = v
	}
	if v, ok := get(envKeys.credentials); ok {
		c.CredentialsFile = v
	}
	if v, ok := get(envKeys.logLevel); ok {
		c.LogLevel = v
	}
	if v, ok := get(envKeys.backend); ok {
		c.Backend = Backend(v)
	}
	if v, ok := get(envKeys.workbook); ok {
		c.Workbook = v
	}
	if v, ok := get(envKeys.dbDir); ok {
		c.DBDir = v
	}
	if v, ok := get(envKeys.concurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: QC_CONCURRENCY=%q", ErrInvalidConcurrency, v)
		}
		c.Concurrency = n
	}
	return nil
}

// Load builds a Config from defaults, the config file and the environment.
// An explicitly given config file must exist; a missing default one is
// ignored.
func Load(configPath, envFile string) (*Config, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath
	if envFile != "" {
		cfg.EnvFile = envFile
	}

	if path := FindConfigFile(configPath); path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		f.Apply(cfg)
		cfg.ConfigFilePath = path
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	if err := LoadEnvFile(cfg.EnvFile); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}
