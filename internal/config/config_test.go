package config

import (
	"os"
	"path/filepath"
	"testing"

	"nscan/internal/driver"
)

func TestDefaultScanLevelIsStandard(t *testing.T) {
	cfg := Default()
	if cfg.ScanLevel != driver.ScanStandard {
		t.Errorf("ScanLevel = %q, want %q", cfg.ScanLevel, driver.ScanStandard)
	}
}

func TestLoadFromPathMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nscancfg.json")
	if err := os.WriteFile(path, []byte(`{"cidr":"10.0.0.0/24","scan_level":"thorough"}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.CIDR != "10.0.0.0/24" {
		t.Errorf("CIDR = %q, want 10.0.0.0/24", cfg.CIDR)
	}
	if cfg.ScanLevel != driver.ScanThorough {
		t.Errorf("ScanLevel = %q, want thorough", cfg.ScanLevel)
	}
	if cfg.Format != "table" {
		t.Errorf("Format = %q, want default table (untouched by file)", cfg.Format)
	}
}

func TestLoadFromPathAppliesFastAlias(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nscancfg.json")
	if err := os.WriteFile(path, []byte(`{"scan_level":"fast"}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.ScanLevel != driver.ScanQuick {
		t.Errorf("ScanLevel = %q, want quick (fast alias)", cfg.ScanLevel)
	}
}

func TestLoadFromPathMissingFileErrors(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestMergeOverridesOnlyNonZeroFields(t *testing.T) {
	base := Default()
	base.CIDR = "192.168.1.0/24"

	merged := base.Merge(Config{ScanLevel: "thorough"})
	if merged.CIDR != "192.168.1.0/24" {
		t.Errorf("CIDR = %q, want unchanged", merged.CIDR)
	}
	if merged.ScanLevel != driver.ScanThorough {
		t.Errorf("ScanLevel = %q, want thorough", merged.ScanLevel)
	}
}

func TestFindConfigPathHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath() = %q, want %q", got, path)
	}
}
