package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/config"
	"github.com/ccollicutt/startlat/pkg/output"
	"github.com/ccollicutt/startlat/pkg/parser"
)

// ReportOptions holds the output and webhook flags of the summarizing commands.
type ReportOptions struct {
	Output  string
	Verbose bool
	Quiet   bool

	// Webhook options
	WebhookURL   string
	WebhookToken string
}

func (o *ReportOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", false, "Include run identifiers and sample counts")
	cmd.Flags().BoolVarP(&o.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVar(&o.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&o.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
}

func (o *ReportOptions) formatter() (output.Formatter, error) {
	return output.NewFormatter(o.Output, output.FormatOptions{Verbose: o.Verbose, Quiet: o.Quiet})
}

// cliWebhooks returns the webhook given on the command line, if any.
func (o *ReportOptions) cliWebhooks() []config.WebhookConfig {
	if o.WebhookURL == "" {
		return nil
	}
	return []config.WebhookConfig{{
		Name:    "cli",
		URL:     o.WebhookURL,
		Token:   o.WebhookToken,
		Trigger: config.WebhookTriggerAlways,
		Timeout: config.DefaultWebhookTimeout,
	}}
}

// NewMeasureCommand creates the measure command.
func NewMeasureCommand(g *GlobalOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "measure <iterations>",
		Short: "Start containers repeatedly and summarize startup intervals",
		Long: `Empty the timestamp log, start and remove the configured container the
given number of times, then report the minimum, maximum and average duration
of every interval observed across the runs.

Exit codes:
  0 - Report printed
  1 - Usage error, teardown failure or malformed timestamp log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeasure(cmd, args, g, opts)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runMeasure(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ReportOptions) error {
	ctx := commandContext(cmd)

	n, err := parseIterations(args[0])
	if err != nil {
		return err
	}

	formatter, err := opts.formatter()
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

	publish(ctx, cfg, report, opts.cliWebhooks(), g.Logger())

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if cfg.TruncateAfter {
		return parser.Truncate(cfg.LogFile)
	}
	return nil
}

func parseIterations(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("iterations must be a positive integer, got %q", s)
	}
	return n, nil
}
