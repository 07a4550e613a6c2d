package commands

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ccollicutt/startlat/pkg/timeline"
	"github.com/ccollicutt/startlat/pkg/webhook"
)

func TestAnalyze(t *testing.T) {
	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100, 150)
	writeRun(logFile, "run-b", 0, 300, 350)
	writeRun(logFile, "run-z", 0, 9999, 99999)

	stdout, _, err := runCLI(t, "-c", configPath, "analyze", "-o", "json", "-q", "run-a", "run-b")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	got := readSummaryFile(t, []byte(stdout))
	if got["TS00 -> TS01"]["minimum"] != "100 ns" || got["TS00 -> TS01"]["maximum"] != "300 ns" {
		t.Errorf("Unexpected TS00 -> TS01 stats: %v", got["TS00 -> TS01"])
	}
	if got["TS01 -> TS02"]["average"] != "50 ns" {
		t.Errorf("Unexpected TS01 -> TS02 stats: %v", got["TS01 -> TS02"])
	}
}

func TestAnalyze_Verbose(t *testing.T) {
	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100)
	writeRun(logFile, "run-b", 0, 300)

	stdout, _, err := runCLI(t, "-c", configPath, "analyze", "-v", "run-a", "run-b")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	for _, want := range []string{"samples: 2", "Run 1: run-a", "Run 2: run-b", "Summary: 2 runs, 1 intervals"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Output missing %q:\n%s", want, stdout)
		}
	}
}

func TestAnalyze_IntervalFilter(t *testing.T) {
	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100, 150)

	stdout, _, err := runCLI(t, "-c", configPath, "analyze", "-o", "json", "-q", "--interval", "TS01 -> TS02", "run-a")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	got := readSummaryFile(t, []byte(stdout))
	if len(got) != 1 {
		t.Fatalf("Expected only the filtered key, got %v", got)
	}
	if _, ok := got["TS01 -> TS02"]; !ok {
		t.Errorf("Missing filtered key: %v", got)
	}
}

func TestAnalyze_UnknownRun(t *testing.T) {
	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100)

	stdout, _, err := runCLI(t, "-c", configPath, "analyze", "run-a", "missing")
	if !errors.Is(err, timeline.ErrEmptySeries) {
		t.Fatalf("Expected empty series error, got %v", err)
	}
	if stdout != "" {
		t.Errorf("No report expected on failure, got:\n%s", stdout)
	}
}

func TestAnalyze_MalformedLine(t *testing.T) {
	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100)
	appendLine(logFile, `{"containerID":"run-a","timestampID":"TS02","time":"soon"}`)

	_, _, err := runCLI(t, "-c", configPath, "analyze", "run-a")
	if !errors.Is(err, timeline.ErrMalformedRecord) {
		t.Errorf("Expected malformed record error, got %v", err)
	}
}

func TestAnalyze_Webhook(t *testing.T) {
	var received webhook.Payload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100)

	_, _, err := runCLI(t, "-c", configPath, "analyze", "-q",
		"--webhook-url", server.URL, "--webhook-token", "secret", "run-a")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if received.Event != webhook.EventBatchCompleted {
		t.Errorf("Unexpected event %q", received.Event)
	}
	if received.Report == nil || received.Report.Summary["TS00 -> TS01"].Maximum != 100 {
		t.Errorf("Unexpected report: %+v", received.Report)
	}
	if auth != "Bearer secret" {
		t.Errorf("Unexpected Authorization header %q", auth)
	}
}

func TestAnalyze_WebhookFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	configPath, logFile := writeConfig(t, "")
	writeRun(logFile, "run-a", 0, 100)

	stdout, stderr, err := runCLI(t, "-c", configPath, "analyze", "-q", "--webhook-url", server.URL, "run-a")
	if err != nil {
		t.Fatalf("Webhook failure must not fail the command: %v", err)
	}
	if stdout != "startlat: 1 runs, 1 intervals\n" {
		t.Errorf("Unexpected output: %q", stdout)
	}
	if !strings.Contains(stderr, "webhook") {
		t.Errorf("Expected a webhook warning on stderr:\n%s", stderr)
	}
}

func TestAnalyze_ConfiguredWebhookNeedsPublish(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	configPath, logFile := writeConfig(t, "webhooks:\n  - url: "+server.URL+"\n")
	writeRun(logFile, "run-a", 0, 100)

	if _, _, err := runCLI(t, "-c", configPath, "analyze", "-q", "run-a"); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("Configured webhooks should not fire without --publish, got %d calls", calls)
	}

	if _, _, err := runCLI(t, "-c", configPath, "analyze", "-q", "--publish", "run-a"); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 webhook call with --publish, got %d", calls)
	}
}
