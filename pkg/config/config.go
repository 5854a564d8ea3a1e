// Package config layers defaults, vislzr.toml, VISLZR_* environment variables
// and command-line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when present
const DefaultFile = "vislzr.toml"

// EnvPrefix marks environment overrides. A double underscore descends into a
// table: VISLZR_LAYOUT__ARC_OFFSET sets layout.arc_offset.
const EnvPrefix = "VISLZR_"

// Config holds all configuration for the application
type Config struct {
	Graph     string        `koanf:"graph"`   // project graph file (.json, .yaml)
	Catalog   string        `koanf:"catalog"` // optional action catalog (.toml, .yaml)
	Project   string        `koanf:"project"`
	Port      int           `koanf:"port"`
	Watch     bool          `koanf:"watch"`
	Verbosity int           `koanf:"verbosity"`
	JSONLogs  bool          `koanf:"json_logs"`
	History   int           `koanf:"history"` // entries kept in action history
	Layout    layout.Config `koanf:"layout"`
}

func defaults() map[string]any {
	l := layout.DefaultConfig()
	return map[string]any{
		"graph":     "",
		"catalog":   "",
		"project":   "",
		"port":      8080,
		"watch":     false,
		"verbosity": 0,
		"json_logs": false,
		"history":   1000,
		"layout": map[string]any{
			"arc_max":        l.ArcMax,
			"stack_max":      l.StackMax,
			"arc_offset":     l.ArcOffset,
			"ring_offset":    l.RingOffset,
			"stack_spacing":  l.StackSpacing,
			"stack_offset_x": l.StackOffsetX,
			"min_clearance":  l.MinClearance,
			"push_step":      l.PushStep,
			"max_attempts":   l.MaxAttempts,
		},
	}
}

// Load builds the configuration. Priority: flags > env > config file > defaults.
// A "config" flag, when defined on f, names the file to read instead of DefaultFile.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := DefaultFile
	explicit := false
	if f != nil {
		if fl := f.Lookup("config"); fl != nil && fl.Value.String() != "" {
			path, explicit = fl.Value.String(), true
		}
	}
	if err := loadFile(k, path, explicit); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// loadFile reads path if it exists. A missing default file is not an error;
// a missing explicit one is, and so is a malformed file either way.
func loadFile(k *koanf.Koanf, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// mapProvider serves a nested map as a koanf provider
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}
