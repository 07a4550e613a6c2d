package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/metrics"
)

// RecordOptions holds command-line options for the record command.
type RecordOptions struct {
	Time      int64
	IfEnabled bool
}

// NewRecordCommand creates the record command.
func NewRecordCommand(g *GlobalOptions) *cobra.Command {
	opts := &RecordOptions{}

	cmd := &cobra.Command{
		Use:   "record <run-id> <timestamp-id>",
		Short: "Append one timestamp record to the log",
		Long: `Append a record in the format the instrumented runtime writes:

  {"containerID":"<run-id>","timestampID":"<timestamp-id>","time":<unix ns>}

Useful for instrumenting shell hooks. With --if-enabled nothing is written
unless ` + metrics.EnvTimestamps + `=1.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if args[0] == "" || args[1] == "" {
				return errors.New("run id and timestamp id must not be empty")
			}
			if opts.Time < 0 {
				return errors.New("--time must not be negative")
			}

			cfg, err := g.LoadConfig(ctx)
			if err != nil {
				return err
			}

			var w metrics.Writer
			var closeFn func() error
			if opts.IfEnabled {
				w, closeFn, err = metrics.NewFromEnv(cfg.LogFile, clockOptions(opts.Time)...)
			} else {
				var zw *metrics.ZerologWriter
				if zw, err = metrics.Open(cfg.LogFile, clockOptions(opts.Time)...); err == nil {
					w, closeFn = zw, zw.Close
				}
			}
			if err != nil {
				return err
			}

			w.Capture(args[0], args[1])
			return closeFn()
		},
	}

	cmd.Flags().Int64Var(&opts.Time, "time", 0, "Record this unix-nanosecond value instead of the current time")
	cmd.Flags().BoolVar(&opts.IfEnabled, "if-enabled", false, "Only write when "+metrics.EnvTimestamps+"=1")

	return cmd
}

func clockOptions(ns int64) []metrics.Option {
	if ns == 0 {
		return nil
	}
	return []metrics.Option{metrics.WithClock(fixedTime(ns))}
}

func fixedTime(ns int64) func() time.Time {
	return func() time.Time { return time.Unix(0, ns) }
}
