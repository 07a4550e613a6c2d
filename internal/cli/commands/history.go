package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/config"
	"github.com/ccollicutt/startlat/pkg/output"
	"github.com/ccollicutt/startlat/pkg/store"
)

// HistoryOptions holds command-line options for the history command.
type HistoryOptions struct {
	Output string
	Limit  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(g *GlobalOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [batch-id]",
		Short: "List stored batches or show one of them",
		Long: `Read the history database configured under history.path (or
STARTLAT_HISTORY_PATH). Without arguments the stored batches are listed,
newest first. With a batch id its report is printed like measure does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			cfg, err := g.LoadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return errors.New("no history database configured (set history.path or " + config.EnvHistoryPath + ")")
			}

			st, err := store.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 1 {
				formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{Verbose: true})
				if err != nil {
					return err
				}
				report, err := st.LoadReport(ctx, args[0])
				if err != nil {
					return err
				}
				return formatter.Format(ctx, report, cmd.OutOrStdout())
			}

			batches, err := st.ListBatches(ctx, opts.Limit)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No batches stored.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BATCH\tMEASURED\tRUNS\tINTERVALS\tDURATION")
			for _, b := range batches {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					b.ID, b.MeasuredAt.Format("2006-01-02 15:04:05"), b.Runs, b.Intervals, b.Duration.Round(1e6))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format for a single batch (text|json)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of batches to list (0 for all)")

	return cmd
}
