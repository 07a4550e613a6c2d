package output

import (
	"context"
	"fmt"
	"io"

	"github.com/ccollicutt/startlat/pkg/aggregate"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "startlat: %d runs, %d intervals\n",
		len(report.Metadata.Runs), report.IntervalCount())
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== Startup Latency Report ===")
	fmt.Fprintln(w)

	if len(report.Summary) == 0 {
		fmt.Fprintln(w, "No intervals recorded")
		fmt.Fprintln(w)
	}

	for _, key := range report.Summary.Keys() {
		f.formatStats(key, report.Summary[key], w)
	}

	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %d runs, %d intervals\n",
		len(report.Metadata.Runs), report.IntervalCount())

	if f.opts.Verbose {
		if report.Metadata.BatchID != "" {
			fmt.Fprintf(w, "Batch: %s\n", report.Metadata.BatchID)
		}
		fmt.Fprintf(w, "Log file: %s\n", report.Metadata.LogFile)
		for i, run := range report.Metadata.Runs {
			fmt.Fprintf(w, "Run %d: %s\n", i+1, run)
		}
		_, err = fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return err
}

func (f *TextFormatter) formatStats(key string, s aggregate.Stats, w io.Writer) {
	fmt.Fprintln(w, key)
	fmt.Fprintf(w, "  minimum: %s\n", aggregate.FormatDuration(s.Minimum))
	fmt.Fprintf(w, "  maximum: %s\n", aggregate.FormatDuration(s.Maximum))
	fmt.Fprintf(w, "  average: %s\n", aggregate.FormatDuration(s.Average))
	if f.opts.Verbose {
		fmt.Fprintf(w, "  samples: %d\n", s.Samples)
	}
	fmt.Fprintln(w)
}

// FormatSeries renders one interval per line as "<key>:\t<n> ns", optionally
// followed by the sorted timeline and the common event pairs.
func (f *TextFormatter) FormatSeries(_ context.Context, report *SeriesReport, w io.Writer) error {
	for _, iv := range report.Intervals {
		fmt.Fprintf(w, "%s:\t%s\n", iv.Key, iv.Duration)
	}

	if len(report.Timeline) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Timeline (%s):\n", report.RunID)
		for _, ts := range report.Timeline {
			fmt.Fprintf(w, "  %s: %d\n", ts.ID, ts.Value)
		}
	}

	if len(report.CommonPairs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Common events:")
		for _, p := range report.CommonPairs {
			fmt.Fprintf(w, "  %s:\t%s\n", p.Key, p.Duration)
		}
	}

	return nil
}
