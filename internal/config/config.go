// Package config loads ctsdiff settings from defaults, an optional YAML file,
// CTSDIFF_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/boyarskiy/ctsdiff/internal/logger"
	"github.com/boyarskiy/ctsdiff/internal/report"
)

// Sentinel validation errors.
var (
	ErrInvalidFormat    = errors.New("invalid report format")
	ErrInvalidGate      = errors.New("invalid baseline gate")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Report formats.
const (
	FormatText     = report.FormatText
	FormatMarkdown = report.FormatMarkdown
	FormatJSON     = report.FormatJSON
	FormatYAML     = report.FormatYAML
)

// Baseline gates.
const (
	// GateAny fails on any structural or outcome difference.
	GateAny = "any"
	// GateRegressions fails only when a test passing in the baseline is
	// missing or no longer passing.
	GateRegressions = "regressions"
)

const envPrefix = "CTSDIFF"

// Config holds all configuration for ctsdiff.
type Config struct {
	Report   ReportConfig   `mapstructure:"report"`
	Baseline BaselineConfig `mapstructure:"baseline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ReportConfig controls how comparison results are rendered.
type ReportConfig struct {
	Format           string `mapstructure:"format"`
	DiffOnly         bool   `mapstructure:"diff_only"`
	NoColor          bool   `mapstructure:"no_color"`
	Summary          bool   `mapstructure:"summary"`
	FailOnDivergence bool   `mapstructure:"fail_on_divergence"`
}

// BaselineConfig controls the comparison against recorded baseline results.
type BaselineConfig struct {
	Files      []string `mapstructure:"files"`
	Gate       string   `mapstructure:"gate"`
	Skip       bool     `mapstructure:"skip"`
	SaveResult string   `mapstructure:"save_result"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FlagBindings maps configuration keys to the command-line flags that
// override them. Flags absent from a command's flag set are skipped.
var FlagBindings = map[string]string{
	"report.format":             "format",
	"report.diff_only":          "diff-only",
	"report.no_color":           "no-color",
	"report.summary":            "summary",
	"report.fail_on_divergence": "fail-on-divergence",
	"baseline.files":            "baseline",
	"baseline.gate":             "gate",
	"baseline.skip":             "no-baseline",
	"baseline.save_result":      "save-result",
	"logging.level":             "log-level",
	"logging.format":            "log-format",
}

// Load reads the configuration. With an empty configPath, .ctsdiff.yaml is
// looked up in the working directory and then $HOME, and its absence is not
// an error. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".ctsdiff")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range FlagBindings {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("report.format", FormatText)
	v.SetDefault("report.diff_only", false)
	v.SetDefault("report.no_color", false)
	v.SetDefault("report.summary", false)
	v.SetDefault("report.fail_on_divergence", false)

	v.SetDefault("baseline.files", []string{})
	v.SetDefault("baseline.gate", GateAny)
	v.SetDefault("baseline.skip", false)
	v.SetDefault("baseline.save_result", "")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", logger.FormatAuto)
}

func validate(cfg *Config) error {
	switch cfg.Report.Format {
	case FormatText, FormatMarkdown, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Report.Format)
	}

	switch cfg.Baseline.Gate {
	case GateAny, GateRegressions:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGate, cfg.Baseline.Gate)
	}

	if _, err := logger.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case logger.FormatAuto, logger.FormatTerminal, logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Logging.Format)
	}

	return nil
}
