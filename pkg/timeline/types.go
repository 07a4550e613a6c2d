// Package timeline turns timestamp records emitted by an instrumented container
// runtime into an ordered timeline of intervals.
package timeline

import "fmt"

// Timestamp is a single labeled point in time parsed from one log record.
type Timestamp struct {
	// ID names the instrumentation point that produced the record (e.g. TS03).
	ID string

	// Value is the monotonic time in nanoseconds.
	Value int64
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%s: %d", t.ID, t.Value)
}

// Interval is the duration between two timestamps of the same run.
type Interval struct {
	StartID string
	EndID   string

	// Duration is end minus start in nanoseconds. It is negative when log
	// order disagrees with chronological order and is kept as observed.
	Duration int64
}

// NewInterval builds the interval from start to end.
func NewInterval(start, end Timestamp) Interval {
	return Interval{
		StartID:  start.ID,
		EndID:    end.ID,
		Duration: end.Value - start.Value,
	}
}

// Key identifies the interval across runs with the same instrumentation.
func (i Interval) Key() string {
	return IntervalKey(i.StartID, i.EndID)
}

// String renders the interval as one report line.
func (i Interval) String() string {
	return fmt.Sprintf("%s:\t%d ns", i.Key(), i.Duration)
}

// IntervalKey formats the key of the interval between two labels.
func IntervalKey(startID, endID string) string {
	return startID + " -> " + endID
}

// Pair is a common-event marker together with the record that followed it.
type Pair struct {
	Marker  Timestamp
	Partner Timestamp
}

// Interval returns the interval from the marker to its partner.
func (p Pair) Interval() Interval {
	return NewInterval(p.Marker, p.Partner)
}
