package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output     string
	SampleSize int
	ShowAll    bool
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(g *GlobalOptions) *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect [log-file]",
		Short: "List the runs and labels found in a timestamp log",
		Long: `Sample a timestamp log and report which runs it holds, the labels each
run recorded, how many intervals each yields and which lines are not valid
records. Defaults to the configured log_file.

Example:
  startlat detect
  startlat detect --sample 5000 /tmp/urunc.zlog
  startlat detect -o json --all /tmp/urunc.zlog`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "List every malformed line, not just the first few")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, g *GlobalOptions, opts *DetectOptions) error {
	ctx := commandContext(cmd)

	var logFile string
	if len(args) == 1 {
		logFile = args[0]
	} else {
		cfg, err := g.LoadConfig(ctx)
		if err != nil {
			return err
		}
		logFile = cfg.LogFile
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))
	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(cmd.OutOrStdout(), result, logFile, opts)
	case "text":
		return outputDetectText(cmd.OutOrStdout(), result, logFile, opts)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// maxMalformedShown limits malformed lines in text output unless --all is set.
const maxMalformedShown = 5

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Timestamp Log Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Valid records: %d (%.1f%%)\n", result.ParsedLines, result.ParseRate()*100)
	fmt.Fprintln(w)

	if !result.HasRuns() {
		fmt.Fprintln(w, "No runs found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: check that the runtime writes timestamps to this file")
		fmt.Fprintln(w, "and that the log was not emptied after the last batch.")
	} else {
		fmt.Fprintf(w, "Runs: %d\n", len(result.Runs))
		for _, r := range result.Runs {
			if r.Complete() {
				fmt.Fprintf(w, "  %s: %d records, %d intervals\n", r.RunID, r.Records, r.Intervals)
				fmt.Fprintf(w, "    labels: %s\n", strings.Join(r.Labels, ", "))
			} else {
				fmt.Fprintf(w, "  %s: %d records, INCOMPLETE (%s)\n", r.RunID, r.Records, r.Problem)
			}
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Labels: %s\n", strings.Join(result.Labels, ", "))
		fmt.Fprintln(w)
	}

	if len(result.Malformed) > 0 {
		fmt.Fprintf(w, "--- Malformed lines: %d ---\n", len(result.Malformed))
		shown := result.Malformed
		if !opts.ShowAll && len(shown) > maxMalformedShown {
			shown = shown[:maxMalformedShown]
		}
		for _, m := range shown {
			fmt.Fprintf(w, "  line %d: %s\n", m.LineNum, m.Reason)
			fmt.Fprintf(w, "    %s\n", truncate(m.Content, 80))
		}
		if len(shown) < len(result.Malformed) {
			fmt.Fprintf(w, "  ... %d more (use --all)\n", len(result.Malformed)-len(shown))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONRun represents a run in JSON output.
type JSONRun struct {
	RunID     string   `json:"run_id"`
	Records   int      `json:"records"`
	Intervals int      `json:"intervals"`
	Labels    []string `json:"labels,omitempty"`
	Problem   string   `json:"problem,omitempty"`
}

// JSONMalformed represents a malformed line in JSON output.
type JSONMalformed struct {
	Line    int    `json:"line"`
	Reason  string `json:"reason"`
	Content string `json:"content"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string          `json:"file"`
	SampledLines int             `json:"sampled_lines"`
	ParsedLines  int             `json:"parsed_lines"`
	Runs         []JSONRun       `json:"runs"`
	Labels       []string        `json:"labels"`
	Malformed    []JSONMalformed `json:"malformed"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         logFile,
		SampledLines: result.SampledLines,
		ParsedLines:  result.ParsedLines,
		Runs:         make([]JSONRun, 0, len(result.Runs)),
		Labels:       append([]string{}, result.Labels...),
		Malformed:    make([]JSONMalformed, 0),
	}

	for _, r := range result.Runs {
		out.Runs = append(out.Runs, JSONRun{
			RunID:     r.RunID,
			Records:   r.Records,
			Intervals: r.Intervals,
			Labels:    r.Labels,
			Problem:   r.Problem,
		})
	}

	malformed := result.Malformed
	if !opts.ShowAll && len(malformed) > maxMalformedShown {
		malformed = malformed[:maxMalformedShown]
	}
	for _, m := range malformed {
		out.Malformed = append(out.Malformed, JSONMalformed{Line: m.LineNum, Reason: m.Reason, Content: m.Content})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
