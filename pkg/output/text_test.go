package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ccollicutt/startlat/pkg/aggregate"
	"github.com/ccollicutt/startlat/pkg/timeline"
)

func testSeries(t *testing.T) *timeline.Series {
	t.Helper()
	var lines []string
	for _, r := range []struct {
		id string
		v  int64
	}{{"TS00", 1000}, {"cTS00", 1100}, {"cTS01", 1180}, {"TS01", 1200}, {"TS02", 1450}} {
		lines = append(lines, fmt.Sprintf(`{"containerID":"aaa111","timestampID":%q,"time":%d}`, r.id, r.v))
	}
	s, err := timeline.NewSeries(lines)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	return s
}

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format_Empty(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := &Report{Summary: aggregate.Summary{}}

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No intervals recorded") {
		t.Errorf("Output should mention no intervals, got:\n%s", output)
	}
	if !strings.Contains(output, "Summary: 0 runs, 0 intervals") {
		t.Errorf("Output missing summary line, got:\n%s", output)
	}
}

func TestTextFormatter_Format(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"=== Startup Latency Report ===",
		"TS00 -> TS01\n  minimum: 100 ns\n  maximum: 300 ns\n  average: 200 ns\n",
		"Summary: 2 runs, 2 intervals",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q, got:\n%s", want, output)
		}
	}

	if strings.Index(output, "TS00 -> TS01") > strings.Index(output, "TS01 -> TS02") {
		t.Error("Interval keys should be rendered in sorted order")
	}
	if strings.Contains(output, "Log file:") {
		t.Error("Non-verbose output should not include metadata")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if got, want := buf.String(), "startlat: 2 runs, 2 intervals\n"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})
	report := createTestReport()
	report.Metadata.BatchID = "batch-1"

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"samples: 2",
		"Batch: batch-1",
		"Log file: /tmp/urunc.zlog",
		"Run 1: aaa111",
		"Run 2: bbb222",
		"Duration: 5s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Verbose output missing %q, got:\n%s", want, output)
		}
	}
}

func TestTextFormatter_FormatSeries(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	s := testSeries(t)

	var buf bytes.Buffer
	if err := f.FormatSeries(context.Background(), NewSeriesReport(s, false), &buf); err != nil {
		t.Fatalf("FormatSeries() error = %v", err)
	}

	want := "TS00 -> TS01:\t200 ns\nTS01 -> TS02:\t250 ns\n"
	if got := buf.String(); got != want {
		t.Errorf("FormatSeries() = %q, want %q", got, want)
	}
	if got := buf.String(); strings.TrimSuffix(got, "\n") != s.Report() {
		t.Errorf("FormatSeries() should match Series.Report(), got %q vs %q", got, s.Report())
	}
}

func TestTextFormatter_FormatSeries_Timeline(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatSeries(context.Background(), NewSeriesReport(testSeries(t), true), &buf); err != nil {
		t.Fatalf("FormatSeries() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Timeline (aaa111):",
		"  TS00: 1000",
		"  TS02: 1450",
		"Common events:",
		"  cTS00 -> cTS01:\t80 ns",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "  cTS00: ") {
		t.Error("Common events must not appear in the sorted timeline")
	}
}
