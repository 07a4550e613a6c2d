package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/output"
	"github.com/ccollicutt/startlat/pkg/parser"
)

// NewExportCommand creates the export command.
func NewExportCommand(g *GlobalOptions) *cobra.Command {
	var noTruncate bool

	cmd := &cobra.Command{
		Use:   "export <iterations> <output-file>",
		Short: "Measure and write the summary as JSON",
		Long: `Run the same batch as measure and write the summary to a JSON file:

  {"<start> -> <end>": {"maximum": "<n> ns", "minimum": "<n> ns", "average": "<n> ns"}}

The timestamp log is emptied afterwards. Nothing is written when the batch fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			n, err := parseIterations(args[0])
			if err != nil {
				return err
			}

			cfg, err := g.LoadConfig(ctx)
			if err != nil {
				return err
			}

			report, err := measureBatch(ctx, cfg, n, g.Logger())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := output.NewJSONFormatter(output.FormatOptions{Quiet: true}).Format(ctx, report, &buf); err != nil {
				return fmt.Errorf("formatting output: %w", err)
			}
			// #nosec G306 - summary file doesn't need restrictive permissions
			if err := os.WriteFile(args[1], buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing summary: %w", err)
			}
			logger := g.Logger()
			logger.Info().Str("file", args[1]).Int("intervals", report.IntervalCount()).Msg("summary written")

			publish(ctx, cfg, report, nil, g.Logger())

			if noTruncate {
				return nil
			}
			return parser.Truncate(cfg.LogFile)
		},
	}

	cmd.Flags().BoolVar(&noTruncate, "keep-log", false, "Do not empty the timestamp log after writing")

	return cmd
}
