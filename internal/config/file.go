package config

import "time"

// SheetFile is the config file form of SheetConfig. Pointer fields tell an
// explicit false or zero apart from an absent key.
type SheetFile struct {
	Name        string   `yaml:"name,omitempty"`
	Range       string   `yaml:"range,omitempty"`
	Unformatted *bool    `yaml:"unformatted,omitempty"`
	FallbackID  *int64   `yaml:"fallbackId,omitempty"`
	Required    []string `yaml:"required,omitempty"`
}

// SheetsFile groups the audited tabs in the config file.
type SheetsFile struct {
	Sales     SheetFile `yaml:"sales,omitempty"`
	Trainings SheetFile `yaml:"trainings,omitempty"`
	Leads     SheetFile `yaml:"leads,omitempty"`
}

// File represents the structure of the .qualitycheck.yaml configuration file.
// Keys left out keep their defaults.
type File struct {
	Backend         string        `yaml:"backend,omitempty"`
	SpreadsheetID   string        `yaml:"spreadsheetId,omitempty"`
	CredentialsFile string        `yaml:"credentialsFile,omitempty"`
	Workbook        string        `yaml:"workbook,omitempty"`
	ReportSheet     string        `yaml:"reportSheet,omitempty"`
	LogLevel        string        `yaml:"logLevel,omitempty"`
	DBDir           string        `yaml:"dbDir,omitempty"`
	SaveToDB        *bool         `yaml:"saveToDb,omitempty"`
	Concurrency     int           `yaml:"concurrency,omitempty"`
	RequestTimeout  time.Duration `yaml:"requestTimeout,omitempty"`
	Retry           RetryConfig   `yaml:"retry,omitempty"`
	Sheets          SheetsFile    `yaml:"sheets,omitempty"`
}

// Apply overrides the values of c with every key set in the file.
func (f *File) Apply(c *Config) {
	setString(&c.SpreadsheetID, f.SpreadsheetID)
	setString(&c.CredentialsFile, f.CredentialsFile)
	setString(&c.Workbook, f.Workbook)
	setString(&c.ReportSheet, f.ReportSheet)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.DBDir, f.DBDir)
	if f.Backend != "" {
		c.Backend = Backend(f.Backend)
	}
	if f.SaveToDB != nil {
		c.SaveToDB = *f.SaveToDB
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.RequestTimeout != 0 {
		c.RequestTimeout = f.RequestTimeout
	}
	if f.Retry.MaxAttempts != 0 {
		c.Retry.MaxAttempts = f.Retry.MaxAttempts
	}
	if f.Retry.InitialDelay != 0 {
		c.Retry.InitialDelay = f.Retry.InitialDelay
	}
	if f.Retry.MaxDelay != 0 {
		c.Retry.MaxDelay = f.Retry.MaxDelay
	}

	f.Sheets.Sales.apply(&c.Sales)
	f.Sheets.Trainings.apply(&c.Trainings)
	f.Sheets.Leads.apply(&c.Leads)
}

func (s SheetFile) apply(c *SheetConfig) {
	setString(&c.Name, s.Name)
	setString(&c.Range, s.Range)
	if s.Unformatted != nil {
		c.Unformatted = *s.Unformatted
	}
	if s.FallbackID != nil {
		c.FallbackID = *s.FallbackID
	}
	if len(s.Required) > 0 {
		c.Required = s.Required
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
