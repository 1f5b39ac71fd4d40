// Package config loads the CLI's defaults file (.amorph.toml or the
// path given by $AMORPH_CONFIG), the same "one struct, one decode
// call, sane zero-value defaults" shape graft's own internal/config
// uses for its YAML settings, but with github.com/BurntSushi/toml —
// a graft indirect dependency promoted to direct use here — standing
// in for gopkg.in/yaml.v3 since Amorph's config file is TOML.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every CLI-tunable default. Any field left unset in the
// file keeps its Go zero value, except Format.IndentWidth, which Load
// sets to 2 when it is unset or zero.
type Config struct {
	Capabilities CapabilityConfig `toml:"capabilities"`
	Format       FormatConfig     `toml:"format"`
	Trace        TraceConfig      `toml:"trace"`
	Color        string           `toml:"color"` // "on", "off", or "auto" (default)
}

// CapabilityConfig is the default capability profile handed to the VM
// when the CLI's own --deny-* flags are not given.
type CapabilityConfig struct {
	DenyInput bool `toml:"deny_input"`
	DenyPrint bool `toml:"deny_print"`
}

// FormatConfig tunes the indentation of the CLI's --json diagnostic
// output (validate, suggest); the canonicalizer's own output always
// uses a two-space indent.
type FormatConfig struct {
	IndentWidth int `toml:"indent_width"`
}

// TraceConfig configures the default trace sink.
type TraceConfig struct {
	Enabled  bool   `toml:"enabled"`
	NatsURL  string `toml:"nats_url"`
	Subject  string `toml:"subject"`
	RichErrs bool   `toml:"rich_errors"`
}

// DefaultPath is where Load looks when no explicit path is given:
// $AMORPH_CONFIG if set, else "./.amorph.toml".
func DefaultPath() string {
	if p := os.Getenv("AMORPH_CONFIG"); p != "" {
		return p
	}
	return ".amorph.toml"
}

// Load reads and decodes the TOML config file at path. A missing file
// is not an error — it yields the default Config (indent width 2,
// everything else zero) — so the CLI's own flags work standalone.
func Load(path string) (*Config, error) {
	cfg := &Config{Format: FormatConfig{IndentWidth: 2}}
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Format.IndentWidth == 0 {
		cfg.Format.IndentWidth = 2
	}
	return cfg, nil
}
