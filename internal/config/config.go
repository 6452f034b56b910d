// Package config loads and validates the project-root `kooix.yaml`
// manifest (SPEC_FULL.md §1.1): pipeline mode, entry file, search paths,
// and the native-driver's tool paths and timeout. It mirrors the
// teacher's manifest loading in spirit — a YAML document
// parsed with the same YAML library, validated into structured
// diagnostics rather than bare errors — generalized from AILANG example
// manifests to a single per-project config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/telagod/kooix/internal/diag"
)

// FileName is the manifest's fixed name, searched for by walking up from
// the working directory the way the teacher's findProjectRoot walks up
// looking for go.mod/.git/ailang.yaml markers.
const FileName = "kooix.yaml"

// maxSearchDepth bounds the upward walk, mirroring spec.md §4.1's bound on
// import-path search-up.
const maxSearchDepth = 8

// Mode selects the pipeline's source-resolution strategy (spec.md §4.1).
type Mode string

const (
	ModeInclude     Mode = "include"
	ModeModuleAware Mode = "module-aware"
)

// Config is the parsed, defaulted, validated kooix.yaml.
type Config struct {
	Entry           string   `yaml:"entry"`
	Mode            Mode     `yaml:"mode"`
	StrictWarnings  bool     `yaml:"strict_warnings"`
	SearchPaths     []string `yaml:"search_paths"`
	TimeoutMs       int      `yaml:"timeout_ms"`
	LLCPath         string   `yaml:"llc_path"`
	CCPath          string   `yaml:"cc_path"`

	// Root is the directory kooix.yaml was found in, set by Find/Load,
	// not read from the file itself — every relative path in the config
	// (Entry, SearchPaths) is resolved against it.
	Root string `yaml:"-"`
}

// defaults returns a Config with every field spec.md's example manifest
// shows as optional filled in.
func defaults() Config {
	return Config{
		Mode:      ModeInclude,
		TimeoutMs: 10000,
		LLCPath:   "llc",
		CCPath:    "cc",
	}
}

// Find walks up from dir looking for kooix.yaml, bounded at
// maxSearchDepth levels, returning the directory it was found in.
func Find(dir string) (string, bool) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for i := 0; i < maxSearchDepth; i++ {
		candidate := filepath.Join(cur, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return cur, true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", false
}

// Load reads and validates the kooix.yaml manifest in dir, applying
// defaults for every field the file omits.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.Root = dir

	if rep := validate(&cfg); rep != nil {
		return nil, rep
	}
	return &cfg, nil
}

// validate checks the loaded manifest's structural invariants, returning
// a *diag.Report (itself an error) rather than a bare error so CLI-level
// diagnostic rendering treats a bad manifest the same as any other
// pipeline-stage failure.
func validate(cfg *Config) *diag.Report {
	if cfg.Entry == "" {
		return diag.Errorf(diag.DRV004, "config", nil, "kooix.yaml: `entry` is required")
	}
	switch cfg.Mode {
	case ModeInclude, ModeModuleAware:
	default:
		return diag.Errorf(diag.DRV004, "config", nil,
			"kooix.yaml: `mode` must be %q or %q, got %q", ModeInclude, ModeModuleAware, cfg.Mode)
	}
	if cfg.TimeoutMs <= 0 {
		return diag.Errorf(diag.DRV004, "config", nil, "kooix.yaml: `timeout_ms` must be positive")
	}
	if cfg.LLCPath == "" {
		return diag.Errorf(diag.DRV004, "config", nil, "kooix.yaml: `llc_path` must not be empty")
	}
	if cfg.CCPath == "" {
		return diag.Errorf(diag.DRV004, "config", nil, "kooix.yaml: `cc_path` must not be empty")
	}
	return nil
}

// EntryPath resolves Entry against Root.
func (c *Config) EntryPath() string {
	if filepath.IsAbs(c.Entry) {
		return c.Entry
	}
	return filepath.Join(c.Root, c.Entry)
}

// SearchPathsAbs resolves every configured search path against Root.
func (c *Config) SearchPathsAbs() []string {
	out := make([]string, len(c.SearchPaths))
	for i, p := range c.SearchPaths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(c.Root, p)
		}
	}
	return out
}
