// Package aggregate rolls interval durations from repeated runs up into
// summary statistics.
package aggregate

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Unit is appended to every rendered duration.
const Unit = "ns"

// Stats summarizes the durations observed for one interval key.
type Stats struct {
	Minimum int64
	Maximum int64

	// Average is the sum divided by the sample count, truncated toward zero.
	Average int64

	// Samples is the number of runs that produced the key.
	Samples int
}

// NewStats computes the statistics of a non-empty list of durations.
func NewStats(durations []int64) Stats {
	if len(durations) == 0 {
		return Stats{}
	}

	var sum int64
	for _, d := range durations {
		sum += d
	}

	return Stats{
		Minimum: slices.Min(durations),
		Maximum: slices.Max(durations),
		Average: sum / int64(len(durations)),
		Samples: len(durations),
	}
}

type statsJSON struct {
	Maximum string `json:"maximum"`
	Minimum string `json:"minimum"`
	Average string `json:"average"`
}

// MarshalJSON renders the statistics as "<n> ns" strings.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{
		Maximum: FormatDuration(s.Maximum),
		Minimum: FormatDuration(s.Minimum),
		Average: FormatDuration(s.Average),
	})
}

// UnmarshalJSON reads statistics written by MarshalJSON. Samples is not part
// of the wire format and stays zero.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw statsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if s.Maximum, err = ParseDuration(raw.Maximum); err != nil {
		return fmt.Errorf("maximum: %w", err)
	}
	if s.Minimum, err = ParseDuration(raw.Minimum); err != nil {
		return fmt.Errorf("minimum: %w", err)
	}
	if s.Average, err = ParseDuration(raw.Average); err != nil {
		return fmt.Errorf("average: %w", err)
	}
	return nil
}

// FormatDuration renders nanoseconds with their unit.
func FormatDuration(ns int64) string {
	return strconv.FormatInt(ns, 10) + " " + Unit
}

// ParseDuration parses a value produced by FormatDuration.
func ParseDuration(s string) (int64, error) {
	num, ok := strings.CutSuffix(strings.TrimSpace(s), " "+Unit)
	if !ok {
		return 0, fmt.Errorf("duration %q has no %q unit", s, Unit)
	}
	return strconv.ParseInt(num, 10, 64)
}

// Summary maps interval keys to their statistics.
type Summary map[string]Stats

// Keys returns the interval keys in sorted order.
func (s Summary) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
