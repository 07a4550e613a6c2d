// Package driver starts and removes containers through a runtime CLI so that
// each run leaves its timestamp records in the shared log.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/startlat/pkg/config"
)

// ErrTeardownFailed is returned when the delete command does not confirm the
// container was removed.
var ErrTeardownFailed = errors.New("container teardown failed")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is included in the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- commands come from the user's config
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

// Driver runs measurement iterations one at a time.
type Driver struct {
	cfg    config.RuntimeConfig
	exec   CommandRunner
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Driver.
type Option func(*Driver)

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) Option {
	return func(d *Driver) {
		d.exec = r
	}
}

// WithLogger sets the logger for progress and command output.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithSleep replaces the wait used for warmup and delay.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) {
		d.sleep = fn
	}
}

// New creates a driver for the given runtime settings.
func New(cfg config.RuntimeConfig, opts ...Option) *Driver {
	d := &Driver{
		cfg:    cfg,
		exec:   ExecRunner{},
		logger: zerolog.Nop(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Spawn starts one container and returns its run identifier, taken from the
// last non-empty line of the run command's output.
func (d *Driver) Spawn(ctx context.Context) (string, error) {
	out, err := d.run(ctx, d.cfg.RunCommand)
	if err != nil {
		return "", fmt.Errorf("spawning container: %w", err)
	}

	id := lastLine(out)
	if id == "" {
		return "", errors.New("spawning container: run command printed no container id")
	}
	return id, nil
}

// Delete removes the container. It fails unless the delete command echoes the
// configured container name on its last line.
func (d *Driver) Delete(ctx context.Context) error {
	out, err := d.run(ctx, d.cfg.DeleteCommand)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTeardownFailed, err)
	}

	if got := lastLine(out); got != d.cfg.ContainerName {
		return fmt.Errorf("%w: expected %q, delete command printed %q", ErrTeardownFailed, d.cfg.ContainerName, got)
	}
	return nil
}

// RunBatch waits for the warmup period and then performs n iterations of
// spawn, delay, delete. It returns the run identifiers in iteration order.
// The log file is not touched.
func (d *Driver) RunBatch(ctx context.Context, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", n)
	}

	if err := d.sleep(ctx, d.cfg.Warmup); err != nil {
		return nil, err
	}

	runs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		d.logger.Info().Int("iteration", i).Int("total", n).Msg("running iteration")

		id, err := d.Spawn(ctx)
		if err != nil {
			return runs, fmt.Errorf("iteration %d: %w", i, err)
		}
		runs = append(runs, id)
		d.logger.Debug().Str("run_id", id).Msg("container started")

		if err := d.sleep(ctx, d.cfg.Delay); err != nil {
			return runs, err
		}

		if err := d.Delete(ctx); err != nil {
			return runs, fmt.Errorf("iteration %d: %w", i, err)
		}
	}

	return runs, nil
}

func (d *Driver) run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	d.logger.Debug().Strs("argv", argv).Msg("exec")
	return d.exec.Run(ctx, argv[0], argv[1:]...)
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
