// Package cmd provides the command-line interface for the bundler.
//
// Configuration System:
//
//	Workspace settings are read through Viper from several sources, highest
//	priority first:
//	1. Command-line flags (--config, --log-level, ...)
//	2. BUNDLER_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (BUNDLER_PROJECT_ROOT, BUNDLER_LOG_LEVEL, ...)
//	4. Configuration file (.bundler.yml)
//
// Environment Variables:
//
//	BUNDLER_CONFIG_FILE: Path to custom configuration file
//	BUNDLER_PROJECT_ROOT: Directory holding one sub-directory per project
//	BUNDLER_TSC: Type checker binary
//	NODE_ENV: Default build mode exposed to bundled code
//
// Per-project build settings live next to each project in
// build.config.{json,yaml,yml} and are not read through Viper.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bundler",
	Short: "Multi-target bundle builds and per-test browser bundles",
	Long: `Bundler builds JavaScript and TypeScript projects into a legacy bundle
exposing a global and, optionally, a modern ES module bundle, each with an
optional minified sibling. It also bundles browser tests into a page that is
opened in Chrome.

Quick Start:
  bundler build widgets            Build the project in ./widgets
  bundler config show widgets      Show the resolved build configuration
  bundler test widgets/__tests__/box.test.ts
                                   Bundle a test and open it in Chrome`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bundler.yml, can also use BUNDLER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. BUNDLER_CONFIG_FILE environment variable
//  3. .bundler.yml in the current directory
//
// The build mode falls back to NODE_ENV so existing scripts keep working.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BUNDLER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bundler")
	}

	viper.SetEnvPrefix("BUNDLER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.BindEnv("mode", "BUNDLER_MODE", "NODE_ENV")

	// A missing or malformed file leaves defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadWorkspace reads the workspace configuration and builds the logger
// configured by it.
func loadWorkspace() (*config.Workspace, logging.Logger, error) {
	ws, err := config.LoadWorkspace()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(ws.Log)
	if err != nil {
		return nil, nil, err
	}

	return ws, logger, nil
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Format,
		Output: os.Stderr,
	}), nil
}
