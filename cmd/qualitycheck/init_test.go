package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/planeta/qualitycheck/internal/config"
)

// TestNewInitCmd tests the init command flags.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}

	output := cmd.Flags().Lookup("output")
	if output == nil || output.Shorthand != "o" || output.DefValue != config.DefaultConfigFile {
		t.Errorf("unexpected output flag %+v", output)
	}
	force := cmd.Flags().Lookup("force")
	if force == nil || force.Shorthand != "f" {
		t.Errorf("unexpected force flag %+v", force)
	}
}

// TestRunInitCmd tests writing the configuration template.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "qc.yaml")
		cmd := NewInitCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"-o", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Created configuration file") {
			t.Errorf("unexpected output %q", buf.String())
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected config file: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}

		f, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		cfg := config.NewConfig()
		f.Apply(cfg)
		if cfg.ReportSheet != "Задачи" || cfg.Sales.FallbackID != 623132210 || !cfg.Sales.Unformatted {
			t.Errorf("unexpected config from template %+v", cfg)
		}
		if cfg.Retry.MaxDelay.Seconds() != 32 || cfg.RequestTimeout.Seconds() != 300 {
			t.Errorf("unexpected durations %v %v", cfg.Retry.MaxDelay, cfg.RequestTimeout)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "qc.yaml")
		if err := os.WriteFile(path, []byte("keep"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err == nil {
			t.Fatal("expected error for existing file")
		}

		data, _ := os.ReadFile(path)
		if string(data) != "keep" {
			t.Error("expected existing file to be untouched")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "qc.yaml")
		if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", path, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "spreadsheetId") {
			t.Error("expected template content")
		}
	})
}
