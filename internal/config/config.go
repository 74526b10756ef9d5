// Package config loads the session configuration described in spec.md §6:
// a small set of option keys settable either by CLI flags or by an optional
// JSON file at $HOME/.nscancfg.json, with flags taking precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"nscan/internal/driver"
)

// Config is the full set of invocation options named in §6.
type Config struct {
	CIDR          string          `json:"cidr,omitempty"`
	Interface     string          `json:"interface,omitempty"`
	PassiveOnly   bool            `json:"passive_only,omitempty"`
	Watch         bool            `json:"watch,omitempty"`
	Export        string          `json:"export,omitempty"`
	Format        string          `json:"format,omitempty"`
	Verbose       bool            `json:"verbose,omitempty"`
	OSDetection   bool            `json:"os_detection,omitempty"`
	ScanLevel     driver.ScanLevel `json:"scan_level,omitempty"`
	HostTimeout   int             `json:"host_timeout,omitempty"`
	IPv6Enabled   bool            `json:"ipv6_enabled,omitempty"`
}

// Default returns the baseline configuration used when no file is present
// and no flags override it.
func Default() Config {
	return Config{
		ScanLevel:   driver.ScanStandard,
		Format:      "table",
		HostTimeout: 0,
		IPv6Enabled: true,
	}
}

// Load resolves the config file via FindConfigPath, if any, and layers it
// over Default(); a missing file is not an error. Fields absent from the
// file keep their default; a field present in the file replaces it, even
// when its value is empty.
func Load() (Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// LoadFromPath reads and parses a config file at an explicit path, merging
// it over Default().
func LoadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalizeScanLevel()
	return cfg, nil
}

// Save writes cfg as the JSON config file at path.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// normalizeScanLevel applies the "fast" -> "quick" alias named in §4.4.
func (c *Config) normalizeScanLevel() {
	if c.ScanLevel == "fast" {
		c.ScanLevel = driver.ScanQuick
	}
}

// Merge layers override on top of c: any non-zero field in override wins,
// modelling "flags override the config file" from §6. Boolean fields can't
// be distinguished from their zero value here, so callers should only pass
// flags that were explicitly set by the invoker. IPv6Enabled is not merged;
// callers set it on the result directly.
func (c Config) Merge(override Config) Config {
	out := c
	if override.CIDR != "" {
		out.CIDR = override.CIDR
	}
	if override.Interface != "" {
		out.Interface = override.Interface
	}
	if override.Export != "" {
		out.Export = override.Export
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.ScanLevel != "" {
		out.ScanLevel = override.ScanLevel
	}
	if override.HostTimeout != 0 {
		out.HostTimeout = override.HostTimeout
	}
	if override.PassiveOnly {
		out.PassiveOnly = true
	}
	if override.Watch {
		out.Watch = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.OSDetection {
		out.OSDetection = true
	}
	out.normalizeScanLevel()
	return out
}
