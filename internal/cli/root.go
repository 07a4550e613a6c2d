// Package cli provides the command-line interface for startlat.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/internal/cli/commands"
	"github.com/ccollicutt/startlat/internal/cli/plugins"
	"github.com/ccollicutt/startlat/pkg/config"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	// An unknown first word may name a plugin.
	if len(os.Args) > 1 {
		potentialCommand := os.Args[1]
		if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
			if !isBuiltinCommand(rootCmd, potentialCommand) {
				if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
					return runPlugin(pluginPath, os.Args[2:])
				}
			}
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if len(os.Args) > 1 {
			potentialCommand := os.Args[1]
			if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
				if !isBuiltinCommand(rootCmd, potentialCommand) {
					_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(potentialCommand))
					return 1
				}
			}
		}
		// SilenceErrors keeps cobra from printing this itself.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runPlugin resolves the configuration named by STARTLAT_CONFIG (defaults
// otherwise) and hands it to the plugin through its environment.
func runPlugin(pluginPath string, args []string) int {
	ctx := context.Background()
	configPath := os.Getenv(config.EnvConfigPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return plugins.Execute(ctx, pluginPath, args, plugins.Environ(configPath, cfg))
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "startlat",
		Short: "Measure container startup latency",
		Long: `startlat measures where the time goes when a container starts.

The container runtime appends timestamp records to a shared log as it starts
a container. startlat drives a batch of spawn and delete iterations, reads the
records each run left behind and reports the minimum, maximum and average
duration of every interval between consecutive timestamps.

  startlat measure 10              # run 10 iterations and print the summary
  startlat export 10 result.json   # same, saved as JSON
  startlat single <run-id>         # intervals of one run already in the log
  startlat record <run> <label>    # append a record (used by the runtime)

PLUGINS:
  Standalone binaries named startlat-<command> are discovered and invoked
  for unknown commands. They receive STARTLAT_LOG_FILE, STARTLAT_CONTAINER_NAME
  and, when set, STARTLAT_CONFIG, STARTLAT_HISTORY_PATH and
  STARTLAT_PUSHGATEWAY_URL. Arguments after the plugin name belong to the
  plugin, so select a config file with STARTLAT_CONFIG rather than --config.

  Plugin locations (searched in order):
    1. Same directory as the startlat binary
    2. ~/.startlat/plugins/
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.Setup(cmd)
		},
	}

	g.Bind(rootCmd)

	rootCmd.AddCommand(commands.NewMeasureCommand(g))
	rootCmd.AddCommand(commands.NewExportCommand(g))
	rootCmd.AddCommand(commands.NewSingleCommand(g))
	rootCmd.AddCommand(commands.NewAnalyzeCommand(g))
	rootCmd.AddCommand(commands.NewRecordCommand(g))
	rootCmd.AddCommand(commands.NewDetectCommand(g))
	rootCmd.AddCommand(commands.NewHistoryCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
