// Package metrics writes timestamp records in the format the instrumented
// runtime uses, one JSON object per line.
package metrics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// EnvTimestamps enables record writing in NewFromEnv when set to "1".
const EnvTimestamps = "URUNC_TIMESTAMPS"

// Writer captures one instrumentation point of a run.
type Writer interface {
	Capture(runID, timestampID string)
}

// ZerologWriter appends records through a zerolog logger.
type ZerologWriter struct {
	logger zerolog.Logger
	closer io.Closer
	now    func() time.Time
}

// Option configures a ZerologWriter.
type Option func(*ZerologWriter)

// WithClock replaces the time source used for the record time.
func WithClock(now func() time.Time) Option {
	return func(z *ZerologWriter) {
		z.now = now
	}
}

// NewWriter creates a writer emitting records to w.
func NewWriter(w io.Writer, opts ...Option) *ZerologWriter {
	z := &ZerologWriter{
		logger: zerolog.New(w),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// Open creates a writer appending to the log file at path.
func Open(path string, opts ...Option) (*ZerologWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666) // #nosec G302 G304 -- shared log file
	if err != nil {
		return nil, fmt.Errorf("opening timestamp log: %w", err)
	}
	z := NewWriter(f, opts...)
	z.closer = f
	return z, nil
}

// Capture writes {"containerID":..,"timestampID":..,"time":<unix ns>}.
func (z *ZerologWriter) Capture(runID, timestampID string) {
	z.logger.Log().
		Str("containerID", runID).
		Str("timestampID", timestampID).
		Int64("time", z.now().UnixNano()).
		Send()
}

// Close closes the underlying file, if the writer owns one.
func (z *ZerologWriter) Close() error {
	if z.closer == nil {
		return nil
	}
	return z.closer.Close()
}

type nopWriter struct{}

func (nopWriter) Capture(_, _ string) {}

// NewNop returns a writer that drops every record.
func NewNop() Writer {
	return nopWriter{}
}

// NewFromEnv opens path when EnvTimestamps is "1" and returns a no-op writer
// otherwise. The returned close function is always safe to call.
func NewFromEnv(path string, opts ...Option) (Writer, func() error, error) {
	if os.Getenv(EnvTimestamps) != "1" {
		return NewNop(), func() error { return nil }, nil
	}
	z, err := Open(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return z, z.Close, nil
}
