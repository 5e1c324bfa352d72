package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/ley/internal/errors"
)

const (
	// JSONFileName is the name of the JSON configuration file.
	JSONFileName = "ley.json"

	// YAMLFileName is the name of the YAML configuration file.
	YAMLFileName = "ley.yaml"

	// DefaultSliceMS is the default idle slot length in milliseconds.
	DefaultSliceMS = 5

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "ley"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// MaxSliceMS bounds the idle slot length.
	MaxSliceMS = 1000
)

// Config represents a ley.json or ley.yaml file.
type Config struct {
	// Scheduler configures render scheduling.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Inspect configures the inspector HTTP server.
	Inspect InspectConfig `json:"inspect" yaml:"inspect"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log configures logging.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig contains render scheduling settings.
type SchedulerConfig struct {
	// SliceMS is the length of an idle slot in milliseconds.
	SliceMS int `json:"slice_ms,omitempty" yaml:"slice_ms,omitempty"`

	// Sync renders every pass without yielding.
	Sync bool `json:"sync,omitempty" yaml:"sync,omitempty"`

	// DebugHooks enables hook order checking.
	DebugHooks bool `json:"debug_hooks,omitempty" yaml:"debug_hooks,omitempty"`
}

// InspectConfig contains inspector settings.
type InspectConfig struct {
	// Addr is the listen address, e.g. "localhost:7070".
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text (default) or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Scheduler: SchedulerConfig{SliceMS: DefaultSliceMS},
		Inspect:   InspectConfig{Addr: DefaultInspectAddr},
		Metrics:   MetricsConfig{Namespace: DefaultNamespace},
		Log:       LogConfig{Level: DefaultLogLevel, Format: "text"},
	}
}

// Load reads configuration from dir. It looks for ley.json first, then
// ley.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E120").
		WithDetail("No " + JSONFileName + " or " + YAMLFileName + " found in " + dir).
		WithSuggestion("Create one, or run without --config to use the defaults")
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E121").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E121").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E121").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E121").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Scheduler.SliceMS == 0 {
		c.Scheduler.SliceMS = DefaultSliceMS
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Scheduler.SliceMS < 1 || c.Scheduler.SliceMS > MaxSliceMS {
		return errors.New("E122").
			WithDetail("scheduler.slice_ms must be between 1 and 1000")
	}
	if !model.IsValidMetricName(model.LabelValue(c.Metrics.Namespace + "_x")) {
		return errors.New("E122").
			WithDetail("metrics.namespace " + c.Metrics.Namespace + " is not a valid metric name prefix")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E122").
			WithDetail("log.format must be text or json")
	}
	return nil
}

// Slice returns the idle slot length.
func (c *Config) Slice() time.Duration {
	return time.Duration(c.Scheduler.SliceMS) * time.Millisecond
}

// LogLevel returns the configured slog level. Invalid levels map to Info;
// Validate reports them.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.New("E122").
			WithDetail("log.level must be debug, info, warn or error, got " + s)
	}
	return level, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
