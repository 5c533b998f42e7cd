// Package config loads templatize configuration from viper-managed sources:
// flags, TEMPLATIZE_-prefixed environment variables, and .templatize.yml.
package config

import (
	"github.com/spf13/viper"

	"github.com/conneroisu/templatize/internal/errors"
	"github.com/conneroisu/templatize/internal/planner"
)

// Config is the resolved tool configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`

	// ProjectType overrides detection when set.
	ProjectType string `mapstructure:"project_type"`

	// RuleFile points at a YAML file of custom rule tables merged over
	// the builtins.
	RuleFile string `mapstructure:"rule_file"`

	// UndoLog is the undo log path relative to the project root.
	UndoLog string `mapstructure:"undo_log"`

	// Values are user-supplied placeholder input values keyed by input
	// name (name, author, email, ...).
	Values map[string]string `mapstructure:"values"`
}

// Load unmarshals and validates configuration from viper's current state.
func Load() (*Config, error) {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("undo_log", planner.UndoLogFileName)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"failed to parse configuration: "+err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field values that viper cannot.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"invalid log_level "+c.LogLevel+" (want debug, info, warn, or error)")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"invalid log_format "+c.LogFormat+" (want text or json)")
	}

	if c.UndoLog == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"undo_log must not be empty")
	}

	return nil
}
