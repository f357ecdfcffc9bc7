// Package cmd provides the command-line interface for macrodoc with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. MACRODOC_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (MACRODOC_SERVER_PORT, etc.)
//	4. Configuration files (.macrodoc.yml) - lowest priority
//
// Environment Variables:
//
//	MACRODOC_CONFIG_FILE: Path to custom configuration file
//	MACRODOC_SERVER_PORT: Override server port
//	MACRODOC_SERVER_HOST: Override server host
//	MACRODOC_DEVELOPMENT_HOT_RELOAD: Enable/disable hot reload
//	And more following the MACRODOC_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "macrodoc",
	Short: "A macro-driven documentation generator",
	Long: `Macrodoc expands $(NAME arg, ...) macro invocations in documentation
sources against a user-extensible macro table and assembles the results
into HTML pages, with a live-reloading preview server for authoring.

Key Features:
  • NAME = VALUE macro tables with positional $0/$1..$9/$+ substitution
  • Recursive expansion with a configurable depth guard
  • Built-in ddoc-flavored macro set, overridable per project
  • Hot reload preview server with WebSocket live updates
  • Environment diagnostics for macro tables and rendered output

Quick Start:
  macrodoc init                   Initialize a new project
  macrodoc serve                  Start the preview server
  macrodoc render                 Render all documents to the output directory
  macrodoc list                   List the loaded macro table
  macrodoc check                  Diagnose macro files and rendered output

Command Aliases (for faster typing):
  init (i), serve (s), render (r), list (l), watch (w), check (c)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .macrodoc.yml, can also use MACRODOC_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. MACRODOC_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .macrodoc.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MACRODOC_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".macrodoc")
	}

	// Enable automatic environment variable binding with MACRODOC_ prefix
	// Examples: MACRODOC_SERVER_PORT, MACRODOC_EXPAND_MAX_DEPTH
	viper.SetEnvPrefix("MACRODOC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults without failing
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
