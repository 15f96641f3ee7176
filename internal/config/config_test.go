package config

import (
	"errors"
	"strings"
	"testing"
)

// TestNewConfig verifies the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Workers is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 1 {
			t.Errorf("expected Workers to be 1, got %d", cfg.Workers)
		}
	})

	t.Run("default SaveHistory is true", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
	})

	t.Run("default DBDir is the XDG data directory", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %s, got %s", XDGDataDir(), cfg.DBDir)
		}
	})
}

// TestXDGDirs verifies that the XDG helpers append the application name.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("expected data dir to end in %s, got %s", AppName, XDGDataDir())
	}
	if !strings.HasSuffix(XDGCacheDir(), AppName) {
		t.Errorf("expected cache dir to end in %s, got %s", AppName, XDGCacheDir())
	}
}

// TestConfigValidate tests the Validate method, one rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		return &Config{Root: "/repo", Workers: 1}
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Root = ""
		if err := cfg.Validate(); !errors.Is(err, ErrNoRoot) {
			t.Errorf("expected ErrNoRoot, got %v", err)
		}
	})

	t.Run("non-positive workers", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Workers = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidWorkers) {
			t.Errorf("expected ErrInvalidWorkers, got %v", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}
