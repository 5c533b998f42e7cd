package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/templatize/internal/config"
	"github.com/conneroisu/templatize/internal/logging"
	"github.com/conneroisu/templatize/internal/rules"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "templatize",
	Short: "Convert a concrete project into a reusable template, and back",
	Long: `Templatize converts a concrete software project into a reusable,
parameterized template: project-specific values become placeholder tokens,
generated artifacts are removed, and every change lands in a reversible undo
log. The companion restore command replays that log, in full or selectively,
and the sanitizer scrubs the log of sensitive values before it is shared.

Quick Start:
  templatize preview              Show what conversion would change
  templatize convert              Convert the project in place
  templatize restore              Replay the undo log
  templatize sanitize             Redact sensitive values from the undo log
  templatize types                List supported project types

Command Aliases (for faster typing):
  convert (c), preview (p), restore (r), sanitize (s), types (t)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .templatize.yml, can also use TEMPLATIZE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Loading priority (highest to lowest): --config flag, the
// TEMPLATIZE_CONFIG_FILE environment variable, then .templatize.yml in the
// current directory. All configuration values also bind to environment
// variables with the TEMPLATIZE_ prefix (e.g. TEMPLATIZE_LOG_LEVEL=debug).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TEMPLATIZE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".templatize")
	}

	viper.SetEnvPrefix("TEMPLATIZE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file degrades to defaults without
	// failing; explicit validation happens in config.Load.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// addProjectFlags registers the flags shared by commands that resolve a
// project before acting on it.
func addProjectFlags(fs *pflag.FlagSet, projectType *string, set *map[string]string, ruleFile *string) {
	fs.StringVarP(projectType, "type", "t", "", "Project type (node, go, python, rust); detected when omitted")
	fs.StringToStringVar(set, "set", nil, "Placeholder input values, e.g. --set name=my-app")
	fs.StringVar(ruleFile, "rules", "", "YAML file of custom rule tables merged over the builtins")
}

// newLogger builds the process logger from loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
}

// loadRegistry returns the builtin rule tables with any configured custom
// table file merged in.
func loadRegistry(cfg *config.Config) (*rules.Registry, error) {
	registry := rules.Builtin()
	if cfg.RuleFile != "" {
		if err := rules.LoadFile(registry, cfg.RuleFile); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
