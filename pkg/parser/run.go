package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadAll drains a source and returns the raw line contents in order.
func ReadAll(ctx context.Context, src LogSource) ([]string, error) {
	var lines []string
	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line.Content)
	}
}

// RunLines returns the lines of the given log files that mention runID, in
// the order they were written. Matching is by substring, so the log must be
// truncated between batches to keep old runs out.
func RunLines(ctx context.Context, files []string, runID string) ([]string, error) {
	if runID == "" {
		return nil, errors.New("empty run id")
	}

	src := NewFileSource(files, runID)
	defer src.Close()

	lines, err := ReadAll(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("reading lines for run %s: %w", runID, err)
	}
	return lines, nil
}

// Truncate empties the log file at path, creating it if needed.
func Truncate(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666) // #nosec G302 G304 -- shared log written by the runtime
	if err != nil {
		return fmt.Errorf("truncating log file: %w", err)
	}
	return f.Close()
}
