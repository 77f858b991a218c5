// Package config loads gp project settings: a gp.yaml, gp.yml or gp.toml
// file found by walking up from a command file, overridden by GP_*
// environment variables. Settings are validated against a JSON Schema
// generated from Config and then by domain rules.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/geoprocessor/pkg/registry"
)

// FileNames are the project file names, in lookup order.
var FileNames = []string{"gp.yaml", "gp.yml", "gp.toml"}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GP_"

// Config is the project configuration.
type Config struct {
	// Properties seed every processor run.
	Properties map[string]any `yaml:"properties,omitempty" toml:"properties" json:"properties,omitempty"`
	// CollisionPolicy applies when a command omits its If...Exists parameter.
	CollisionPolicy string `yaml:"collision_policy,omitempty" toml:"collision_policy" json:"collision_policy,omitempty" env:"COLLISION_POLICY" jsonschema:"enum=Replace,enum=ReplaceAndWarn,enum=Warn,enum=Fail"`
	StopOnFailure   bool   `yaml:"stop_on_failure,omitempty" toml:"stop_on_failure" json:"stop_on_failure,omitempty" env:"STOP_ON_FAILURE"`
	// Trace is a JSONL trace file; empty disables tracing.
	Trace string     `yaml:"trace,omitempty" toml:"trace" json:"trace,omitempty" env:"TRACE"`
	Log   LogConfig  `yaml:"log,omitempty" toml:"log" json:"log,omitempty" envPrefix:"LOG_"`
	Test  TestConfig `yaml:"test,omitempty" toml:"test" json:"test,omitempty" envPrefix:"TEST_"`

	// File is the project file the config was read from, if any.
	File string `yaml:"-" toml:"-" json:"-"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level" json:"level,omitempty" env:"LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format,omitempty" toml:"format" json:"format,omitempty" env:"FORMAT" jsonschema:"enum=text,enum=json"`
}

// TestConfig configures gp test.
type TestConfig struct {
	// Pattern is the glob matching regression test command files.
	Pattern string `yaml:"pattern,omitempty" toml:"pattern" json:"pattern,omitempty" env:"PATTERN"`
	// Report is the report file; .json writes JSON, anything else text.
	Report string `yaml:"report,omitempty" toml:"report" json:"report,omitempty" env:"REPORT"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		CollisionPolicy: string(registry.Replace),
		Log:             LogConfig{Level: "info", Format: "text"},
		Test:            TestConfig{Pattern: "test-*.gp"},
	}
}

// Discover walks up from start, a file or directory, and returns the first
// project file found. It returns "" when there is none.
func Discover(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadFile reads path over the defaults. Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(raw), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parse %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.Properties = normalizeProperties(cfg.Properties)
	cfg.File = path
	return cfg, nil
}

// Load discovers the project file above start, applies environment
// overrides and validates the result. An empty start skips discovery.
func Load(start string) (*Config, error) {
	cfg := Default()
	if start != "" {
		path, err := Discover(start)
		if err != nil {
			return nil, fmt.Errorf("discover config: %w", err)
		}
		if path != "" {
			if cfg, err = LoadFile(path); err != nil {
				return nil, err
			}
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from GP_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Policy returns the configured collision policy.
func (c *Config) Policy() registry.Policy {
	p, err := registry.ParsePolicy(c.CollisionPolicy, registry.Replace)
	if err != nil {
		return registry.Replace
	}
	return p
}

// LogLevel returns the configured slog level; unknown names are info.
func (c *Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger returns a logger writing to w in the configured format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// PropertyNames returns the configured property names, sorted.
func (c *Config) PropertyNames() []string {
	names := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// normalizeProperties converts decoder-specific values to the types
// processor properties use: int, float64, bool, string and []string.
func normalizeProperties(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case []any:
		items := make([]string, len(x))
		for i, it := range x {
			items[i] = fmt.Sprint(it)
		}
		return items
	}
	return v
}
