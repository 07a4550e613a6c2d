package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/startlat/pkg/aggregate"
	"github.com/ccollicutt/startlat/pkg/config"
	"github.com/ccollicutt/startlat/pkg/driver"
	"github.com/ccollicutt/startlat/pkg/output"
	"github.com/ccollicutt/startlat/pkg/parser"
	"github.com/ccollicutt/startlat/pkg/promexport"
	"github.com/ccollicutt/startlat/pkg/store"
	"github.com/ccollicutt/startlat/pkg/timeline"
	"github.com/ccollicutt/startlat/pkg/webhook"
)

// loadSeries reads and parses the records of every run. The first run that
// cannot be parsed aborts the whole batch.
func loadSeries(ctx context.Context, files, runs []string) ([]*timeline.Series, error) {
	series := make([]*timeline.Series, 0, len(runs))
	for _, run := range runs {
		lines, err := parser.RunLines(ctx, files, run)
		if err != nil {
			return nil, err
		}
		s, err := timeline.ForRun(run, lines)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run, err)
		}
		series = append(series, s)
	}
	return series, nil
}

// summarize builds the batch report for runs already present in the log.
func summarize(ctx context.Context, cfg *config.Config, runs []string, started time.Time, keys []string) (*output.Report, error) {
	files, err := cfg.ReadFiles()
	if err != nil {
		return nil, err
	}

	series, err := loadSeries(ctx, files, runs)
	if err != nil {
		return nil, err
	}

	agg := aggregate.New(aggregate.WithKeyFilter(keys))
	for _, sr := range series {
		agg.Add(sr)
	}
	return output.NewReport(agg.Summary(), cfg.LogFile, agg.Runs(), started, time.Now()), nil
}

// measureBatch empties the log, drives n iterations of the runtime and
// summarizes the resulting runs.
func measureBatch(ctx context.Context, cfg *config.Config, n int, logger zerolog.Logger) (*output.Report, error) {
	started := time.Now()

	if err := parser.Truncate(cfg.LogFile); err != nil {
		return nil, err
	}

	logger.Info().Int("iterations", n).Msg("collecting timestamps")
	d := driver.New(cfg.Runtime, driver.WithRunner(newRunner()), driver.WithLogger(logger))
	runs, err := d.RunBatch(ctx, n)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("runs", len(runs)).Msg("collected runs")

	return summarize(ctx, cfg, runs, started, nil)
}

// publish hands a finished report to the configured sinks. Sink failures are
// logged and never fail the command.
func publish(ctx context.Context, cfg *config.Config, report *output.Report, extraHooks []config.WebhookConfig, logger zerolog.Logger) {
	if cfg.History.Path != "" {
		saveHistory(ctx, cfg.History.Path, report, logger)
	}

	if cfg.Pushgateway.URL != "" {
		exp := promexport.New()
		exp.Observe(report)
		if err := exp.Push(ctx, cfg.Pushgateway.URL, cfg.Pushgateway.Job); err != nil {
			logger.Warn().Err(err).Msg("pushgateway push failed")
		} else {
			logger.Debug().Str("url", cfg.Pushgateway.URL).Msg("pushed batch metrics")
		}
	}

	hooks := append(append([]config.WebhookConfig{}, cfg.Webhooks...), extraHooks...)
	if len(hooks) > 0 {
		webhook.NewClient().Notify(ctx, hooks, report, logger)
	}
}

func saveHistory(ctx context.Context, path string, report *output.Report, logger zerolog.Logger) {
	st, err := store.Open(path)
	if err != nil {
		logger.Warn().Err(err).Msg("history store unavailable")
		return
	}
	defer st.Close()

	id, err := st.SaveReport(ctx, report)
	if err != nil {
		logger.Warn().Err(err).Msg("saving batch to history failed")
		return
	}
	logger.Info().Str("batch_id", id).Str("db", st.Path()).Msg("batch saved to history")
}
