// Package plugins runs external startlat-<command> binaries for commands
// that are not built in, the way kubectl and git do.
//
// A plugin works on the same measurement setup as startlat. It receives the
// resolved configuration in its environment:
//
//	STARTLAT_CONFIG           config file in use, if any
//	STARTLAT_LOG_FILE         timestamp log the runtime writes to
//	STARTLAT_CONTAINER_NAME   container started and removed by each run
//	STARTLAT_HISTORY_PATH     history database, if configured
//	STARTLAT_PUSHGATEWAY_URL  pushgateway, if configured
//
// The log and history variables are the ones startlat itself reads, so a
// plugin that calls back into startlat sees the same files.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/startlat/pkg/config"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "startlat-"

// EnvContainerName carries the measured container name to a plugin.
const EnvContainerName = "STARTLAT_CONTAINER_NAME"

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// Environ returns the variables describing cfg, loaded from configPath,
// in KEY=value form.
func Environ(configPath string, cfg *config.Config) []string {
	env := []string{
		config.EnvLogFile + "=" + cfg.LogFile,
		EnvContainerName + "=" + cfg.Runtime.ContainerName,
	}
	if configPath != "" {
		env = append(env, config.EnvConfigPath+"="+configPath)
	}
	if cfg.History.Path != "" {
		env = append(env, config.EnvHistoryPath+"="+cfg.History.Path)
	}
	if cfg.Pushgateway.URL != "" {
		env = append(env, config.EnvPushgatewayURL+"="+cfg.Pushgateway.URL)
	}
	return env
}

// FindPlugin searches for the binary startlat-<command> in:
//  1. the directory of the startlat binary
//  2. ~/.startlat/plugins/
//  3. PATH
func FindPlugin(command string) (string, error) {
	pluginName := Prefix + command

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(homeDir, ".startlat", "plugins", pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments and extra environment.
// Standard streams are passed through and the plugin's exit code is
// returned.
func Execute(ctx context.Context, pluginPath string, args, env []string) int {
	cmd := exec.CommandContext(ctx, pluginPath, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError explains where a plugin for command would be looked up.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"startlat\"\n", command)
	sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	fmt.Fprintf(&sb, "  - %s%s in the same directory as startlat\n", Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.startlat/plugins/%s%s\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)
	sb.WriteString("\nRun 'startlat --help' for usage.")

	return sb.String()
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
