// Package config provides the configuration of a quality check run: the
// data source, the audited tabs and their required columns, retry policy,
// logging and run history settings.
//
// Values are layered. NewConfig supplies defaults, a YAML file found by
// FindConfigFile overrides them, QC_* environment variables (optionally
// from a .env file) override the file, and CLI flags come last.
package config
