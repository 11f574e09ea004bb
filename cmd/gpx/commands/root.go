// Package commands provides the CLI commands for gpx.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/internal/config"
	"github.com/l3aro/go-partial-extract/internal/log"
)

var (
	appConfig = config.DefaultConfig()
	logger    = log.Nop()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gpx",
	Short: "gpx - Partial extract-method opportunities for Java and Go",
	Long: `gpx finds statements that compute one variable inside a selection and can
be moved to a new method, leaving the rest of the method intact.

Commands:
  opportunities  List extraction opportunities in a selection
  preview        Show the extracted method and the rewritten original
  cfg            Print the control flow graph of a method
  pdg            Print the program dependence graph of a method
  init           Create a configuration file interactively
  scan           Summarize opportunities for every method under a directory
  cache          Inspect or clear the report cache

Use "gpx [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// setup loads the configuration and builds the logger shared by commands.
func setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var err error
	if configPath != "" {
		appConfig, err = config.LoadFromFile(configPath)
	} else {
		appConfig, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := appConfig.LogLevel()
	if verbose {
		level = log.DebugLevel
	}
	logger = log.New(log.LoggerConfig{
		Level:      level,
		JSONOutput: appConfig.Log.JSON,
		Colors:     appConfig.Output.Color,
	})
	logger.Debug("config loaded", "format", appConfig.Output.Format, "cache", appConfig.Cache.Enabled)
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.gpx and ./.gpx layers)")
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}
