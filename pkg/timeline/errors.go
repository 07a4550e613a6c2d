package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord matches every *MalformedRecordError via errors.Is.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptySeries matches every *EmptySeriesError via errors.Is.
	ErrEmptySeries = errors.New("empty series")
)

// MalformedRecordError reports a log line that cannot become a Timestamp, or a
// common-event marker without its partner.
type MalformedRecordError struct {
	// Line is the 1-based position of the record in the series input.
	// Zero when the record was parsed on its own.
	Line int

	// Raw is the offending log line.
	Raw string

	// Reason describes what is wrong with the record.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedRecordError) Error() string {
	msg := "malformed record"
	if e.Line > 0 {
		msg = fmt.Sprintf("malformed record at line %d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// EmptySeriesError reports that no log lines were found for a run.
type EmptySeriesError struct {
	RunID string
}

func (e *EmptySeriesError) Error() string {
	if e.RunID == "" {
		return "empty series: no log lines"
	}
	return fmt.Sprintf("empty series: no log lines for run %q", e.RunID)
}

func (e *EmptySeriesError) Is(target error) bool {
	return target == ErrEmptySeries
}
