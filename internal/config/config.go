package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/mot/internal/logging"
)

// Dump configures the motdump tool.
type Dump struct {
	Mode       string
	Format     string
	LogLevel   string
	HexWidth   int
	Metrics    bool
	Extensions []string
}

type dumpFile struct {
	Mode       string   `toml:"mode"`
	Format     string   `toml:"format"`
	LogLevel   string   `toml:"log_level"`
	HexWidth   int      `toml:"hex_width"`
	Metrics    bool     `toml:"metrics"`
	Extensions []string `toml:"extensions"`
}

var (
	dumpModes      = []string{"h", "d", "b"}
	dumpFormats    = []string{"text", "yaml"}
	dumpExtensions = []string{"epg"}
)

func DefaultDump() Dump {
	return Dump{
		Mode:     "h",
		Format:   "text",
		LogLevel: "warn",
		HexWidth: 16,
	}
}

// LoadDump overlays the keys present in the TOML file at path onto the
// defaults and validates the result.
func LoadDump(path string) (Dump, error) {
	cfg := DefaultDump()

	var raw dumpFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Dump{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Dump{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
	}

	if meta.IsDefined("mode") {
		cfg.Mode = NormalizeMode(raw.Mode)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw.Format))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("hex_width") {
		cfg.HexWidth = raw.HexWidth
	}
	if meta.IsDefined("metrics") {
		cfg.Metrics = raw.Metrics
	}
	if meta.IsDefined("extensions") {
		cfg.Extensions = normalizeList(raw.Extensions)
	}

	if err := ValidateDump(cfg); err != nil {
		return Dump{}, err
	}
	return cfg, nil
}

// NormalizeMode accepts the long segment names as well as h, d and b.
func NormalizeMode(raw string) string {
	switch m := strings.ToLower(strings.TrimSpace(raw)); m {
	case "header":
		return "h"
	case "directory":
		return "d"
	case "body":
		return "b"
	default:
		return m
	}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func ValidateDump(cfg Dump) error {
	if !slices.Contains(dumpModes, cfg.Mode) {
		return fmt.Errorf("dump config mode must be one of %v, got %q", dumpModes, cfg.Mode)
	}
	if !slices.Contains(dumpFormats, cfg.Format) {
		return fmt.Errorf("dump config format must be one of %v, got %q", dumpFormats, cfg.Format)
	}
	if !logging.ValidLevel(cfg.LogLevel) {
		return fmt.Errorf("dump config log_level %q unknown", cfg.LogLevel)
	}
	if cfg.HexWidth < 1 || cfg.HexWidth > 64 {
		return fmt.Errorf("dump config hex_width must be between 1 and 64, got %d", cfg.HexWidth)
	}
	for _, ext := range cfg.Extensions {
		if !slices.Contains(dumpExtensions, ext) {
			return fmt.Errorf("dump config extension %q unknown", ext)
		}
	}
	return nil
}
