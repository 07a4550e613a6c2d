package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// runExecute runs Execute with the given arguments and returns its exit code.
func runExecute(t *testing.T, args ...string) int {
	t.Helper()

	prev := os.Args
	os.Args = append([]string{"startlat"}, args...)
	t.Cleanup(func() { os.Args = prev })

	t.Setenv("HOME", t.TempDir())
	return Execute()
}

// writeShellConfig writes a config whose runtime commands are shell
// one-liners, with no waits between steps.
func writeShellConfig(t *testing.T, deleteOutput string) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`log_file: %s
runtime:
  run_command: [sh, -c, "echo ctr0001"]
  delete_command: [sh, -c, "echo %s"]
  container_name: redis-test
  delay: 0s
  warmup: 0s
`, filepath.Join(dir, "ts.zlog"), deleteOutput)

	path := filepath.Join(dir, "startlat.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	if root.Use != "startlat" {
		t.Errorf("Unexpected Use: %s", root.Use)
	}
	for _, name := range []string{"measure", "export", "single", "analyze", "record", "detect", "history", "validate", "diagnose", "version"} {
		if !isBuiltinCommand(root, name) {
			t.Errorf("Missing command: %s", name)
		}
	}
	for _, flag := range []string{"config", "log-level"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Missing persistent flag: %s", flag)
		}
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want int
	}{
		{
			name: "version",
			args: func(*testing.T) []string { return []string{"version"} },
			want: 0,
		},
		{
			name: "non-numeric iterations",
			args: func(*testing.T) []string { return []string{"measure", "abc"} },
			want: 1,
		},
		{
			name: "missing arguments",
			args: func(*testing.T) []string { return []string{"export", "3"} },
			want: 1,
		},
		{
			name: "unknown command",
			args: func(*testing.T) []string { return []string{"startlat-no-such-command"} },
			want: 1,
		},
		{
			name: "teardown failure",
			args: func(t *testing.T) []string {
				return []string{"-c", writeShellConfig(t, "other-container"), "measure", "1"}
			},
			want: 1,
		},
		{
			name: "empty batch log",
			args: func(t *testing.T) []string {
				return []string{"-c", writeShellConfig(t, "redis-test"), "measure", "1"}
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runExecute(t, tt.args(t)...); got != tt.want {
				t.Errorf("Execute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExecute_PluginReceivesConfig(t *testing.T) {
	binDir := t.TempDir()
	seen := filepath.Join(binDir, "seen")
	script := "#!/bin/sh\necho \"$STARTLAT_LOG_FILE\" > " + seen + "\n"
	if err := os.WriteFile(filepath.Join(binDir, "startlat-trend"), []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write plugin: %v", err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	logFile := filepath.Join(t.TempDir(), "custom.zlog")
	t.Setenv("STARTLAT_LOG_FILE", logFile)

	if got := runExecute(t, "trend"); got != 0 {
		t.Fatalf("Execute() = %d, want 0", got)
	}

	data, err := os.ReadFile(seen)
	if err != nil {
		t.Fatalf("Plugin did not run: %v", err)
	}
	if string(data) != logFile+"\n" {
		t.Errorf("Plugin saw log file %q, want %q", data, logFile)
	}
}
