// Package output provides formatting and output generation for latency reports.
package output

import (
	"time"

	"github.com/ccollicutt/startlat/pkg/aggregate"
	"github.com/ccollicutt/startlat/pkg/timeline"
)

// Report is the complete output of one batch.
type Report struct {
	// Summary maps interval keys to their statistics.
	Summary aggregate.Summary `json:"summary"`

	// Metadata provides context about the batch.
	Metadata Metadata `json:"metadata"`
}

// Metadata provides context about the batch.
type Metadata struct {
	// BatchID identifies the batch in the history store, if it was saved.
	BatchID string `json:"batch_id,omitempty"`

	// LogFile is the timestamp log the runs were read from.
	LogFile string `json:"log_file"`

	// Runs lists the run identifiers in iteration order.
	Runs []string `json:"runs"`

	// MeasuredAt is when the batch finished.
	MeasuredAt time.Time `json:"measured_at"`

	// Duration is how long the batch took, driving included.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a batch summary.
func NewReport(summary aggregate.Summary, logFile string, runs []string, started, finished time.Time) *Report {
	return &Report{
		Summary: summary,
		Metadata: Metadata{
			LogFile:    logFile,
			Runs:       runs,
			MeasuredAt: finished,
			Duration:   finished.Sub(started),
		},
	}
}

// IntervalCount returns the number of distinct interval keys.
func (r *Report) IntervalCount() int {
	return len(r.Summary)
}

// SeriesReport is the rendering of a single run.
type SeriesReport struct {
	RunID       string          `json:"run_id"`
	Intervals   []IntervalEntry `json:"intervals"`
	Timeline    []TimelineEntry `json:"timeline,omitempty"`
	CommonPairs []IntervalEntry `json:"common_pairs,omitempty"`
}

// IntervalEntry is one rendered interval.
type IntervalEntry struct {
	Key      string `json:"key"`
	Duration string `json:"duration"`
}

// TimelineEntry is one rendered timestamp.
type TimelineEntry struct {
	ID    string `json:"id"`
	Value int64  `json:"value"`
}

// NewSeriesReport renders a series. withTimeline adds the sorted timestamps
// and the common event pairs.
func NewSeriesReport(s *timeline.Series, withTimeline bool) *SeriesReport {
	r := &SeriesReport{
		RunID:     s.RunID,
		Intervals: []IntervalEntry{},
	}
	for _, iv := range s.Intervals() {
		r.Intervals = append(r.Intervals, newIntervalEntry(iv))
	}

	if !withTimeline {
		return r
	}

	for _, ts := range s.Sorted() {
		r.Timeline = append(r.Timeline, TimelineEntry{ID: ts.ID, Value: ts.Value})
	}
	for _, p := range s.CommonPairs() {
		r.CommonPairs = append(r.CommonPairs, newIntervalEntry(p.Interval()))
	}
	return r
}

func newIntervalEntry(iv timeline.Interval) IntervalEntry {
	return IntervalEntry{Key: iv.Key(), Duration: aggregate.FormatDuration(iv.Duration)}
}
