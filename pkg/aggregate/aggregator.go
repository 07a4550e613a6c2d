package aggregate

import (
	"github.com/ccollicutt/startlat/pkg/timeline"
)

// Aggregator collects interval durations across the runs of one batch.
// It is not safe for concurrent use.
type Aggregator struct {
	durations map[string][]int64
	runs      []string

	// Options
	keyFilter map[string]bool // nil means all keys
}

// Option configures aggregator behavior.
type Option func(*Aggregator)

// WithKeyFilter limits aggregation to the given interval keys.
func WithKeyFilter(keys []string) Option {
	return func(a *Aggregator) {
		if len(keys) > 0 {
			a.keyFilter = make(map[string]bool, len(keys))
			for _, k := range keys {
				a.keyFilter[k] = true
			}
		}
	}
}

// New creates an empty aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		durations: make(map[string][]int64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add records every interval of a series. A key repeated within one series
// contributes its last duration only.
func (a *Aggregator) Add(s *timeline.Series) {
	a.runs = append(a.runs, s.RunID)

	for key, iv := range s.DiffMap() {
		if a.keyFilter != nil && !a.keyFilter[key] {
			continue
		}
		a.durations[key] = append(a.durations[key], iv.Duration)
	}
}

// Runs returns the run identifiers added so far, in order.
func (a *Aggregator) Runs() []string {
	runs := make([]string, len(a.runs))
	copy(runs, a.runs)
	return runs
}

// Summary computes the statistics for every key seen. Keys missing from some
// runs are aggregated from the runs that have them.
func (a *Aggregator) Summary() Summary {
	summary := make(Summary, len(a.durations))
	for key, durations := range a.durations {
		summary[key] = NewStats(durations)
	}
	return summary
}

// Aggregate summarizes a batch of series in one call.
func Aggregate(series []*timeline.Series, opts ...Option) Summary {
	a := New(opts...)
	for _, s := range series {
		a.Add(s)
	}
	return a.Summary()
}
