package timeline

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// CommonMarker labels the first record of a common-event pair. The
	// record written right after it in the log is its partner.
	CommonMarker = "cTS00"

	// commonTag marks every label belonging to a common-event pair.
	commonTag = "cTS"
)

// Series holds the timestamps of one measured run in parse order.
type Series struct {
	// RunID identifies the run (the container ID) the records belong to.
	RunID string

	timestamps []Timestamp
}

// NewSeries parses the log lines of a single run. The run identifier is taken
// from the first line. Any malformed line fails the whole series.
func NewSeries(lines []string) (*Series, error) {
	if len(lines) == 0 {
		return nil, &EmptySeriesError{}
	}

	s := &Series{timestamps: make([]Timestamp, 0, len(lines))}

	for i, line := range lines {
		rec, err := DecodeRecord(line)
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Line = i + 1
			}
			return nil, err
		}
		if i == 0 {
			if rec.ContainerID == "" {
				return nil, &MalformedRecordError{Line: 1, Raw: line, Reason: "missing containerID"}
			}
			s.RunID = rec.ContainerID
		}
		s.timestamps = append(s.timestamps, rec.Timestamp())
	}

	last := s.timestamps[len(s.timestamps)-1]
	if last.ID == CommonMarker {
		return nil, &MalformedRecordError{
			Line:   len(lines),
			Raw:    lines[len(lines)-1],
			Reason: CommonMarker + " marker has no partner record",
		}
	}

	return s, nil
}

// ForRun is NewSeries for lines already filtered to runID. It reports an
// EmptySeriesError naming the run when nothing matched.
func ForRun(runID string, lines []string) (*Series, error) {
	if len(lines) == 0 {
		return nil, &EmptySeriesError{RunID: runID}
	}
	return NewSeries(lines)
}

// Timestamps returns a copy of the timestamps in parse order.
func (s *Series) Timestamps() []Timestamp {
	return slices.Clone(s.timestamps)
}

// Sorted returns the timeline: every timestamp that is not part of a
// common-event pair, ordered by value. Equal values keep parse order.
func (s *Series) Sorted() []Timestamp {
	sorted := make([]Timestamp, 0, len(s.timestamps))
	for _, ts := range s.timestamps {
		if !isCommon(ts.ID) {
			sorted = append(sorted, ts)
		}
	}
	slices.SortStableFunc(sorted, func(a, b Timestamp) int {
		return cmp.Compare(a.Value, b.Value)
	})
	return sorted
}

// CommonPairs returns every common-event marker paired with the record that
// immediately follows it in parse order.
func (s *Series) CommonPairs() []Pair {
	var pairs []Pair
	for i, ts := range s.timestamps {
		// NewSeries rejects a trailing marker, so i+1 is always in range.
		if ts.ID == CommonMarker {
			pairs = append(pairs, Pair{Marker: ts, Partner: s.timestamps[i+1]})
		}
	}
	return pairs
}

// Intervals returns the intervals between consecutive timestamps of Sorted.
func (s *Series) Intervals() []Interval {
	sorted := s.Sorted()
	if len(sorted) < 2 {
		return nil
	}

	intervals := make([]Interval, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		intervals = append(intervals, NewInterval(sorted[i], sorted[i+1]))
	}
	return intervals
}

// DiffMap returns the intervals keyed by interval key. If a key repeats, the
// later interval wins.
func (s *Series) DiffMap() map[string]Interval {
	intervals := s.Intervals()
	diffs := make(map[string]Interval, len(intervals))
	for _, iv := range intervals {
		diffs[iv.Key()] = iv
	}
	return diffs
}

// Report renders the intervals one per line.
func (s *Series) Report() string {
	intervals := s.Intervals()
	lines := make([]string, len(intervals))
	for i, iv := range intervals {
		lines[i] = iv.String()
	}
	return strings.Join(lines, "\n")
}

// String renders the sorted timeline followed by the common-event pairs.
func (s *Series) String() string {
	var sb strings.Builder
	for _, ts := range s.Sorted() {
		fmt.Fprintf(&sb, "%s:  %d\n", ts.ID, ts.Value)
	}
	for _, p := range s.CommonPairs() {
		fmt.Fprintf(&sb, "\n%s\n%s\n", p.Marker, p.Partner)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func isCommon(id string) bool {
	return strings.Contains(id, commonTag)
}
