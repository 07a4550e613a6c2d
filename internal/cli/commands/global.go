// Package commands implements the startlat subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/startlat/pkg/config"
	"github.com/ccollicutt/startlat/pkg/driver"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string

	logger zerolog.Logger
}

// newRunner builds the command runner used to drive the container runtime.
var newRunner = func() driver.CommandRunner { return driver.ExecRunner{} }

// Bind registers the persistent flags on the root command.
func (g *GlobalOptions) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", os.Getenv(config.EnvConfigPath),
		"Configuration file (defaults apply when omitted; env "+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
}

// Setup builds the logger. It is meant to run as PersistentPreRunE.
func (g *GlobalOptions) Setup(cmd *cobra.Command) error {
	level, err := zerolog.ParseLevel(strings.ToLower(g.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return fmt.Errorf("invalid log level %q", g.LogLevel)
	}
	g.logger = newLogger(cmd.ErrOrStderr()).Level(level)
	return nil
}

// Logger returns the configured logger.
func (g *GlobalOptions) Logger() zerolog.Logger {
	return g.logger
}

// LoadConfig loads the configuration file named by --config.
func (g *GlobalOptions) LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		noColor = os.Getenv("NO_COLOR") != ""
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
