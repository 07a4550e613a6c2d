// Package detector samples a timestamp log and reports which runs it holds,
// which labels they carry and which lines fail to parse.
package detector

import (
	"bufio"
	"context"
	"errors"
	"os"
	"slices"
	"strings"

	"github.com/ccollicutt/startlat/pkg/timeline"
)

// DefaultSampleSize is the number of lines read when no size is given.
const DefaultSampleSize = 1000

// DetectionResult holds the result of sampling a log file.
type DetectionResult struct {
	Runs         []RunInfo       // Runs in order of first appearance
	Labels       []string        // Distinct timestamp labels, sorted
	Malformed    []MalformedLine // Lines that are not valid records
	SampledLines int             // Number of non-empty lines sampled
	ParsedLines  int             // Number of lines decoded as records
}

// RunInfo describes the records of one run found in the sample.
type RunInfo struct {
	RunID     string
	Records   int
	Labels    []string // Labels in log order
	Intervals int      // Intervals the run yields, zero if it cannot be built
	Problem   string   // Why the run cannot be built into a series, if it cannot
}

// Complete reports whether the run forms a valid series.
func (r RunInfo) Complete() bool {
	return r.Problem == ""
}

// MalformedLine is a sampled line that failed to decode.
type MalformedLine struct {
	LineNum int
	Reason  string
	Content string
}

// Detector analyzes timestamp logs.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 1000).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a log file and describes its contents.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines describes a slice of log lines. Blank lines are skipped but
// still count toward line numbers.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}

	byRun := make(map[string][]string)
	var order []string
	labels := make(map[string]bool)

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.SampledLines++

		rec, err := timeline.DecodeRecord(line)
		if err != nil {
			result.Malformed = append(result.Malformed, MalformedLine{
				LineNum: i + 1,
				Reason:  reason(err),
				Content: line,
			})
			continue
		}
		if rec.ContainerID == "" {
			result.Malformed = append(result.Malformed, MalformedLine{
				LineNum: i + 1,
				Reason:  "record has no containerID",
				Content: line,
			})
			continue
		}
		result.ParsedLines++

		labels[rec.TimestampID] = true
		if _, ok := byRun[rec.ContainerID]; !ok {
			order = append(order, rec.ContainerID)
		}
		byRun[rec.ContainerID] = append(byRun[rec.ContainerID], line)
	}

	for _, id := range order {
		result.Runs = append(result.Runs, describeRun(id, byRun[id]))
	}

	for l := range labels {
		result.Labels = append(result.Labels, l)
	}
	slices.Sort(result.Labels)

	return result
}

func describeRun(id string, lines []string) RunInfo {
	info := RunInfo{RunID: id, Records: len(lines)}

	s, err := timeline.ForRun(id, lines)
	if err != nil {
		info.Problem = reason(err)
		return info
	}

	for _, ts := range s.Timestamps() {
		info.Labels = append(info.Labels, ts.ID)
	}
	info.Intervals = len(s.Intervals())
	return info
}

func reason(err error) string {
	var mre *timeline.MalformedRecordError
	if errors.As(err, &mre) {
		return mre.Reason
	}
	return err.Error()
}

// ParseRate returns the fraction of sampled lines that decoded as records.
func (r *DetectionResult) ParseRate() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.ParsedLines) / float64(r.SampledLines)
}

// HasRuns returns true if at least one run was found.
func (r *DetectionResult) HasRuns() bool {
	return len(r.Runs) > 0
}

// sampleFile reads up to sampleSize lines from a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
