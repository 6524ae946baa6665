// Package config loads process configuration from the environment and
// scenario presets from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/internal/observability"
)

// ErrPresetNotFound is returned when a named preset is absent from a file.
var ErrPresetNotFound = errors.New("preset not found")

// Config is the process-level configuration shared by the CLI subcommands.
type Config struct {
	GRPCAddr    string `env:"BURIALCLOCK_GRPC_ADDR" envDefault:":50051"`
	HTTPAddr    string `env:"BURIALCLOCK_HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"BURIALCLOCK_METRICS_ADDR" envDefault:":9090"`

	LogLevel  string `env:"BURIALCLOCK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BURIALCLOCK_LOG_FORMAT" envDefault:"text"`

	CacheSize int `env:"BURIALCLOCK_CACHE_SIZE" envDefault:"64"`

	// PresetFile optionally names a YAML file of scenario presets and
	// Preset selects one of them as the starting settings.
	PresetFile string `env:"BURIALCLOCK_PRESET_FILE"`
	Preset     string `env:"BURIALCLOCK_PRESET" envDefault:"default"`

	Tracing TracingConfig
}

// TracingConfig mirrors observability.TracingConfig with env bindings.
type TracingConfig struct {
	Enabled     bool    `env:"BURIALCLOCK_TRACING_ENABLED" envDefault:"false"`
	ServiceName string  `env:"BURIALCLOCK_TRACING_SERVICE_NAME" envDefault:"burial-clock"`
	Exporter    string  `env:"BURIALCLOCK_TRACING_EXPORTER" envDefault:"stdout"`
	Endpoint    string  `env:"BURIALCLOCK_OTLP_ENDPOINT"`
	SampleRatio float64 `env:"BURIALCLOCK_TRACING_SAMPLE_RATIO" envDefault:"1"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize(), nil
}

// LoadFrom parses Config from an explicit variable map, ignoring the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize(), nil
}

func (c Config) normalize() Config {
	if c.CacheSize < 0 {
		c.CacheSize = 0
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return c
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}

// TracingSettings returns the tracer configuration.
func (c Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}

// PresetFile is the YAML document holding named scenario presets. Durations
// are kept as strings so malformed entries fall back field by field when
// applied.
//
//	presets:
//	  default:
//	    exposure_myr: "0.5"
//	    burial_myr: "1.0"
//	    re_exposure_myr: "0.5"
type PresetFile struct {
	Presets map[string]core.SettingsCandidate `yaml:"presets"`
}

// ReadPresets decodes a preset document.
func ReadPresets(r io.Reader) (PresetFile, error) {
	var pf PresetFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&pf); err != nil {
		if errors.Is(err, io.EOF) {
			return PresetFile{}, nil
		}
		return PresetFile{}, fmt.Errorf("decode presets: %w", err)
	}
	return pf, nil
}

// LoadPresets reads a preset document from path.
func LoadPresets(path string) (PresetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return PresetFile{}, fmt.Errorf("open presets %q: %w", path, err)
	}
	defer f.Close()
	return ReadPresets(f)
}

// Candidate returns the named preset.
func (pf PresetFile) Candidate(name string) (core.SettingsCandidate, error) {
	c, ok := pf.Presets[name]
	if !ok {
		return core.SettingsCandidate{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return c, nil
}
