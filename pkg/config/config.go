// Package config provides configuration loading and validation for astdiff.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/astdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
	"github.com/Sumatoshi-tech/astdiff/pkg/report"
)

// Sentinel validation errors.
var (
	ErrInvalidMinHeight   = errors.New("min subtree height must be positive")
	ErrInvalidSimilarity  = errors.New("similarity threshold must be in (0, 1]")
	ErrInvalidWorkers     = errors.New("workers must not be negative")
	ErrInvalidFormat      = errors.New("unknown output format")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidSampleRatio = errors.New("sample ratio must be in [0, 1]")
	ErrInvalidFileSize    = errors.New("invalid max file size")
	ErrNoExtensions       = errors.New("no input extensions configured")
)

// Output formats.
const (
	FormatSummary = report.FormatSummary
	FormatJSON    = report.FormatJSON
	FormatYAML    = report.FormatYAML
	FormatActions = report.FormatActions
)

// Formats lists the supported output formats.
var Formats = []string{FormatSummary, FormatJSON, FormatYAML, FormatActions}

// Config holds all configuration for astdiff.
type Config struct {
	Matching  MatchingConfig  `mapstructure:"matching"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Input     InputConfig     `mapstructure:"input"`
}

// MatchingConfig tunes the differ.
type MatchingConfig struct {
	MinSubtreeHeight    int     `mapstructure:"min_subtree_height"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	Workers             int     `mapstructure:"workers"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	MetricsFile  string  `mapstructure:"metrics_file"`
	RedactPaths  bool    `mapstructure:"redact_paths"`
}

// InputConfig selects the files read from directories.
type InputConfig struct {
	Extensions  []string `mapstructure:"extensions"`
	MaxFileSize string   `mapstructure:"max_file_size"`
}

// LoadConfig loads configuration from file and environment variables.
// Without a path, .astdiff.yaml is looked up in the working directory and
// then in the home directory; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(".astdiff")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix("ASTDIFF")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("matching.min_subtree_height", DefaultMinSubtreeHeight)
	viperCfg.SetDefault("matching.similarity_threshold", DefaultSimilarityThreshold)
	viperCfg.SetDefault("matching.workers", DefaultWorkers)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.color", DefaultOutputColor)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.redact_paths", DefaultRedactPaths)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.metrics_file", "")

	viperCfg.SetDefault("input.extensions", DefaultExtensions())
	viperCfg.SetDefault("input.max_file_size", DefaultMaxFileSize)
}

// Validate checks the configuration for values the differ cannot run with.
func (c *Config) Validate() error {
	if c.Matching.MinSubtreeHeight <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinHeight, c.Matching.MinSubtreeHeight)
	}

	if c.Matching.SimilarityThreshold <= 0 || c.Matching.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSimilarity, c.Matching.SimilarityThreshold)
	}

	if c.Matching.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Matching.Workers)
	}

	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if _, err := c.MaxFileSize(); err != nil {
		return err
	}

	if len(c.Input.Extensions) == 0 {
		return ErrNoExtensions
	}

	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return level, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// MaxFileSize returns the size limit for input files in bytes.
func (c *Config) MaxFileSize() (uint64, error) {
	size, err := humanize.ParseBytes(c.Input.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidFileSize, c.Input.MaxFileSize, err)
	}

	return size, nil
}

// DiffOptions returns the matching options for the differ.
func (c *Config) DiffOptions() astdiff.Options {
	return astdiff.Options{
		MinSubtreeHeight: c.Matching.MinSubtreeHeight,
		Similarity:       c.Matching.SimilarityThreshold,
		Workers:          c.Matching.Workers,
	}
}

// ReportOptions returns the report settings.
func (c *Config) ReportOptions() report.Options {
	return report.Options{Format: c.Output.Format, Color: c.Output.Color}
}

// Observability returns the telemetry setup for the CLI. Metrics go to a
// local Prometheus registry when a metrics file is configured.
func (c *Config) Observability(version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.Prometheus = c.Telemetry.MetricsFile != ""
	cfg.RedactPaths = c.Telemetry.RedactPaths
	cfg.LogJSON = c.Logging.JSON

	if level, err := c.LogLevel(); err == nil {
		cfg.LogLevel = level
	}

	return cfg
}
