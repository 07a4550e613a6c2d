package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a startlat configuration file without running a batch.
The file can be given as an argument or with --config.

Checks:
  - YAML syntax
  - Required fields (log file, run and delete commands, container name)
  - Non-negative delay and warmup
  - Webhook and pushgateway URLs
  - Log file existence (warning only)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				g.ConfigPath = args[0]
			}
			return runValidate(cmd, g)
		},
	}
}

func runValidate(cmd *cobra.Command, g *GlobalOptions) error {
	w := cmd.OutOrStdout()

	name := g.ConfigPath
	if name == "" {
		name = "built-in defaults"
	}
	fmt.Fprintf(w, "Validating %s...\n", name)

	cfg, err := g.LoadConfig(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log file:   %s\n", cfg.LogFile)
	fmt.Fprintf(w, "  Run:        %s\n", strings.Join(cfg.Runtime.RunCommand, " "))
	fmt.Fprintf(w, "  Delete:     %s\n", strings.Join(cfg.Runtime.DeleteCommand, " "))
	fmt.Fprintf(w, "  Container:  %s\n", cfg.Runtime.ContainerName)
	fmt.Fprintf(w, "  Delay:      %s\n", cfg.Runtime.Delay)
	fmt.Fprintf(w, "  Warmup:     %s\n", cfg.Runtime.Warmup)
	fmt.Fprintf(w, "  Webhooks:   %d\n", len(cfg.Webhooks))

	if _, err := os.Stat(cfg.LogFile); os.IsNotExist(err) {
		fmt.Fprintf(w, "\nWarning: log file %s does not exist yet\n", cfg.LogFile)
	}

	return nil
}
