package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ReportOptions

	Intervals []string
	Publish   bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(g *GlobalOptions) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <run-id>...",
		Short: "Summarize runs already present in the timestamp log",
		Long: `Aggregate the intervals of runs that are already in the timestamp log,
without starting any container. The output matches measure.

Example:
  startlat analyze 3f2a9c 8b1d04
  startlat analyze -o json --interval "TS00 -> TS01" 3f2a9c 8b1d04`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, g, opts)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringSliceVar(&opts.Intervals, "interval", nil, "Report specific interval key(s) only (can be repeated)")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "Send the report to the configured history, pushgateway and webhooks")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, g *GlobalOptions, opts *AnalyzeOptions) error {
	ctx := commandContext(cmd)

	formatter, err := opts.formatter()
	if err != nil {
		return err
	}

	cfg, err := g.LoadConfig(ctx)
	if err != nil {
		return err
	}

	report, err := summarize(ctx, cfg, args, time.Now(), opts.Intervals)
	if err != nil {
		return err
	}

	// Configured sinks only fire with --publish; a --webhook-url always does.
	switch {
	case opts.Publish:
		publish(ctx, cfg, report, opts.cliWebhooks(), g.Logger())
	case opts.WebhookURL != "":
		webhook.NewClient().Notify(ctx, opts.cliWebhooks(), report, g.Logger())
	}

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
