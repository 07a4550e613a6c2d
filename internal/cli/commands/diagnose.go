package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/config"
	"github.com/ccollicutt/startlat/pkg/detector"
	"github.com/ccollicutt/startlat/pkg/store"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues before running a batch.

Checks:
- Config file syntax and structure (when --config is given)
- Timestamp log location and contents
- Runtime binaries for the run and delete commands
- Webhook, pushgateway and history settings

Example:
  startlat diagnose
  startlat -c startlat.yaml diagnose -v  # verbose output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), g.ConfigPath, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	if configPath != "" {
		result := checkConfigExists(configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
	}

	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	results = append(results, checkLogFile(ctx, cfg, opts)...)
	results = append(results, checkRuntime(cfg)...)
	results = append(results, checkWebhooks(cfg, opts)...)
	results = append(results, checkSinks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Omit --config to run with the built-in defaults",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if path == "" {
		result.Message = "No config file given, using defaults"
	} else {
		result.Message = "Config file parsed successfully"
	}
	result.Details = []string{
		fmt.Sprintf("Log file: %s", cfg.LogFile),
		fmt.Sprintf("Container: %s", cfg.Runtime.ContainerName),
		fmt.Sprintf("Delay: %s, warmup: %s", cfg.Runtime.Delay, cfg.Runtime.Warmup),
	}
	return cfg, result
}

func checkLogFile(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Log File: %s", cfg.LogFile),
	}

	info, err := os.Stat(cfg.LogFile)
	switch {
	case os.IsNotExist(err):
		result.Status = "warning"
		result.Message = "File does not exist yet"
		result.Suggests = []string{
			"It is created when a batch starts",
			"Make sure the runtime writes its timestamps to this path",
		}
		return []DiagnosticResult{result}
	case err != nil:
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return []DiagnosticResult{result}
	case info.IsDir():
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return []DiagnosticResult{result}
	}

	// #nosec G302 G304 -- probing the shared log for write access
	f, err := os.OpenFile(cfg.LogFile, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("File is not writable: %v", err)
		result.Suggests = []string{"The log is emptied before each batch and must be writable"}
		return []DiagnosticResult{result}
	}
	f.Close()

	if info.Size() == 0 {
		result.Status = "ok"
		result.Message = "File exists and is empty"
		return []DiagnosticResult{result}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
	results := []DiagnosticResult{result}

	content := DiagnosticResult{Check: "Log Contents"}
	det, err := detector.New().DetectFromFile(ctx, cfg.LogFile)
	if err != nil {
		content.Status = "warning"
		content.Message = fmt.Sprintf("Cannot read file: %v", err)
		return append(results, content)
	}

	switch {
	case det.ParsedLines == 0:
		content.Status = "error"
		content.Message = "No valid timestamp records in the sample"
		content.Suggests = []string{
			"Records must look like {\"containerID\":\"...\",\"timestampID\":\"TS00\",\"time\":1700000000000000000}",
			"Use 'startlat detect' to list the malformed lines",
		}
	case len(det.Malformed) > 0:
		content.Status = "warning"
		content.Message = fmt.Sprintf("%d of %d sampled lines are not valid records", len(det.Malformed), det.SampledLines)
		content.Details = []string{fmt.Sprintf("First bad line %d: %s", det.Malformed[0].LineNum, det.Malformed[0].Reason)}
		content.Suggests = []string{"A batch fails if any of its runs contains a malformed line"}
	default:
		content.Status = "ok"
		content.Message = fmt.Sprintf("%d records from %d run(s)", det.ParsedLines, len(det.Runs))
		if opts.Verbose {
			content.Details = []string{fmt.Sprintf("Labels: %s", strings.Join(det.Labels, ", "))}
		}
	}

	return append(results, content)
}

func checkRuntime(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, c := range []struct {
		name string
		argv []string
	}{
		{"Run Command", cfg.Runtime.RunCommand},
		{"Delete Command", cfg.Runtime.DeleteCommand},
	} {
		result := DiagnosticResult{Check: c.name}
		path, err := exec.LookPath(c.argv[0])
		if err != nil {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%s not found in PATH", c.argv[0])
			result.Suggests = []string{"measure and export need the container runtime CLI"}
		} else {
			result.Status = "ok"
			result.Message = path
			result.Details = []string{strings.Join(c.argv, " ")}
		}
		results = append(results, result)
	}

	if !slices.Contains(cfg.Runtime.DeleteCommand, cfg.Runtime.ContainerName) {
		results = append(results, DiagnosticResult{
			Check:   "Container Name",
			Status:  "warning",
			Message: fmt.Sprintf("delete_command does not mention %q", cfg.Runtime.ContainerName),
			Suggests: []string{
				"Teardown only succeeds when the delete command prints the container name",
			},
		})
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== startlat Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before measuring.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nSetup looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		// Load already rejected bad URLs and triggers; only the token is left to check.
		if wh.Token == "" && strings.Contains(wh.URL, "token") {
			result.Status = "warning"
			result.Message = "URL seems to carry a token; prefer the token field"
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
		}

		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// A HEAD request is enough to know the endpoint is reachable.
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func checkSinks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if cfg.Pushgateway.URL != "" {
		results = append(results, DiagnosticResult{
			Check:   "Pushgateway",
			Status:  "ok",
			Message: fmt.Sprintf("%s (job %s)", cfg.Pushgateway.URL, cfg.Pushgateway.Job),
		})
	} else if opts.Verbose {
		results = append(results, DiagnosticResult{
			Check:   "Pushgateway",
			Status:  "ok",
			Message: "Not configured (optional)",
		})
	}

	if cfg.History.Path == "" {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "History",
				Status:  "ok",
				Message: "Not configured (optional)",
			})
		}
		return results
	}

	result := DiagnosticResult{Check: fmt.Sprintf("History: %s", cfg.History.Path)}
	st, err := store.Open(cfg.History.Path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot open database: %v", err)
		result.Suggests = []string{"Check that the directory is writable"}
		return append(results, result)
	}
	defer st.Close()

	batches, err := st.ListBatches(ctx, 0)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read database: %v", err)
		return append(results, result)
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d batch(es) stored", len(batches))
	return append(results, result)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
