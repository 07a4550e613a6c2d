package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/output"
	"github.com/ccollicutt/startlat/pkg/parser"
	"github.com/ccollicutt/startlat/pkg/timeline"
)

// SingleOptions holds command-line options for the single command.
type SingleOptions struct {
	Output   string
	Timeline bool
}

// NewSingleCommand creates the single command.
func NewSingleCommand(g *GlobalOptions) *cobra.Command {
	opts := &SingleOptions{}

	cmd := &cobra.Command{
		Use:   "single <run-id>",
		Short: "Print the intervals of one run",
		Long: `Read the records of one run from the timestamp log and print every
interval of its sorted timeline, one per line:

  TS00 -> TS01:	2345 ns

The log is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{})
			if err != nil {
				return err
			}

			cfg, err := g.LoadConfig(ctx)
			if err != nil {
				return err
			}

			files, err := cfg.ReadFiles()
			if err != nil {
				return err
			}

			lines, err := parser.RunLines(ctx, files, args[0])
			if err != nil {
				return err
			}

			s, err := timeline.ForRun(args[0], lines)
			if err != nil {
				return err
			}

			if err := formatter.FormatSeries(ctx, output.NewSeriesReport(s, opts.Timeline), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("formatting output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&opts.Timeline, "timeline", false, "Also print the sorted timestamps and common event pairs")

	return cmd
}
