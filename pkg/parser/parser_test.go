package parser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const sampleLog = `{"containerID":"aaa111","timestampID":"TS00","time":100}
{"containerID":"bbb222","timestampID":"TS00","time":105}
{"containerID":"aaa111","timestampID":"TS01","time":150}

{"containerID":"bbb222","timestampID":"TS01","time":190}
{"containerID":"aaa111","timestampID":"TS02","time":170}
`

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource_Next(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	source := NewFileSource([]string{logFile}, "aaa111")
	defer source.Close()

	ctx := context.Background()
	var lines []*LogLine

	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		lines = append(lines, line)
	}

	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}

	if lines[0].LineNum != 1 {
		t.Errorf("LineNum = %d, want 1", lines[0].LineNum)
	}
	if lines[2].LineNum != 6 {
		t.Errorf("LineNum = %d, want 6 (blank line counted)", lines[2].LineNum)
	}
	if lines[0].Source != logFile {
		t.Errorf("Source = %q, want %q", lines[0].Source, logFile)
	}
}

func TestFileSource_EmptyFilterSkipsBlankLines(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	source := NewFileSource([]string{logFile}, "")
	defer source.Close()

	lines, err := ReadAll(context.Background(), source)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(lines) != 5 {
		t.Errorf("Got %d lines, want 5", len(lines))
	}
}

func TestFileSource_MultipleFiles(t *testing.T) {
	a := writeLog(t, "a.zlog", `{"containerID":"c1","timestampID":"TS00","time":1}`+"\n")
	b := writeLog(t, "b.zlog", `{"containerID":"c1","timestampID":"TS01","time":2}`+"\n")

	source := NewFileSource([]string{a, b}, "c1")
	defer source.Close()

	lines, err := ReadAll(context.Background(), source)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("Got %d lines, want 2", len(lines))
	}
	if lines[0] != `{"containerID":"c1","timestampID":"TS00","time":1}` {
		t.Errorf("first line = %q, files should be read in order", lines[0])
	}
}

func TestFileSource_EmptyFile(t *testing.T) {
	logFile := writeLog(t, "empty.zlog", "")

	source := NewFileSource([]string{logFile}, "c1")
	defer source.Close()

	_, err := source.Next(context.Background())
	if err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestFileSource_FileNotFound(t *testing.T) {
	source := NewFileSource([]string{"/nonexistent/urunc.zlog"}, "c1")
	defer source.Close()

	_, err := source.Next(context.Background())
	if err == nil {
		t.Error("Next() expected error for missing file")
	}
}

func TestFileSource_ContextCancellation(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	source := NewFileSource([]string{logFile}, "aaa111")
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Next(ctx)
	if err != context.Canceled {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestFileSource_Close(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	source := NewFileSource([]string{logFile}, "aaa111")

	if _, err := source.Next(context.Background()); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	if err := source.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRunLines(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	lines, err := RunLines(context.Background(), []string{logFile}, "bbb222")
	if err != nil {
		t.Fatalf("RunLines() error = %v", err)
	}

	want := []string{
		`{"containerID":"bbb222","timestampID":"TS00","time":105}`,
		`{"containerID":"bbb222","timestampID":"TS01","time":190}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("RunLines() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunLines_NoMatch(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	lines, err := RunLines(context.Background(), []string{logFile}, "zzz999")
	if err != nil {
		t.Fatalf("RunLines() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("RunLines() = %v, want none", lines)
	}
}

func TestRunLines_EmptyRunID(t *testing.T) {
	if _, err := RunLines(context.Background(), nil, ""); err == nil {
		t.Error("RunLines() expected error for empty run id")
	}
}

func TestTruncate(t *testing.T) {
	logFile := writeLog(t, "urunc.zlog", sampleLog)

	if err := Truncate(logFile); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}

	info, err := os.Stat(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size after Truncate() = %d, want 0", info.Size())
	}
}

func TestTruncate_CreatesMissingFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "new.zlog")

	if err := Truncate(logFile); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("Truncate() did not create file: %v", err)
	}
}
