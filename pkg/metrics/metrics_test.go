package metrics

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/startlat/pkg/parser"
	"github.com/ccollicutt/startlat/pkg/timeline"
)

func fixedClock(start int64) func() time.Time {
	next := start
	return func() time.Time {
		t := time.Unix(0, next)
		next += 100
		return t
	}
}

func TestZerologWriter_Capture(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithClock(fixedClock(1000)))

	w.Capture("c1", "TS00")

	assert.JSONEq(t, `{"containerID":"c1","timestampID":"TS00","time":1000}`, strings.TrimSpace(buf.String()))
}

func TestZerologWriter_RecordsParse(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithClock(fixedClock(500)))

	for _, id := range []string{"TS00", "cTS00", "cTS01", "TS01"} {
		w.Capture("run-a", id)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	s, err := timeline.NewSeries(lines)
	require.NoError(t, err)

	assert.Equal(t, "run-a", s.RunID)
	require.Len(t, s.Intervals(), 1)
	assert.Equal(t, "TS00 -> TS01", s.Intervals()[0].Key())
	assert.Equal(t, int64(300), s.Intervals()[0].Duration)
	assert.Len(t, s.CommonPairs(), 1)
}

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urunc.zlog")

	for _, run := range []string{"r1", "r2"} {
		w, err := Open(path, WithClock(fixedClock(10)))
		require.NoError(t, err)
		w.Capture(run, "TS00")
		w.Capture(run, "TS01")
		require.NoError(t, w.Close())
	}

	lines, err := parser.RunLines(context.Background(), []string{path}, "r2")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestNewFromEnv_Disabled(t *testing.T) {
	t.Setenv(EnvTimestamps, "")
	path := filepath.Join(t.TempDir(), "urunc.zlog")

	w, closeFn, err := NewFromEnv(path)
	require.NoError(t, err)
	w.Capture("c1", "TS00")
	require.NoError(t, closeFn())

	assert.NoFileExists(t, path)
}

func TestNewFromEnv_Enabled(t *testing.T) {
	t.Setenv(EnvTimestamps, "1")
	path := filepath.Join(t.TempDir(), "urunc.zlog")

	w, closeFn, err := NewFromEnv(path)
	require.NoError(t, err)
	w.Capture("c1", "TS00")
	require.NoError(t, closeFn())

	assert.FileExists(t, path)
}
