package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/startlat/pkg/parser"
)

// Load reads and validates a configuration file. An empty path yields the
// defaults, still subject to environment overrides and validation.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.LogFile == "" {
		return errors.New("log_file: a timestamp log file is required")
	}

	if err := validateRuntime(&cfg.Runtime); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	if cfg.Pushgateway.URL != "" {
		if err := validateHTTPURL(cfg.Pushgateway.URL); err != nil {
			return fmt.Errorf("pushgateway: %w", err)
		}
		if cfg.Pushgateway.Job == "" {
			cfg.Pushgateway.Job = DefaultPushgatewayJob
		}
	}

	return nil
}

// ReadFiles returns the log files to read runs from: LogFile followed by the
// expansion of LogSources.
func (c *Config) ReadFiles() ([]string, error) {
	extra, err := parser.ExpandGlobs(c.LogSources)
	if err != nil {
		return nil, fmt.Errorf("log_sources: %w", err)
	}

	files := []string{c.LogFile}
	for _, f := range extra {
		if f != c.LogFile {
			files = append(files, f)
		}
	}
	return files, nil
}

func validateRuntime(rt *RuntimeConfig) error {
	if len(rt.RunCommand) == 0 || rt.RunCommand[0] == "" {
		return errors.New("run_command is required")
	}
	if len(rt.DeleteCommand) == 0 || rt.DeleteCommand[0] == "" {
		return errors.New("delete_command is required")
	}
	if rt.ContainerName == "" {
		return errors.New("container_name is required")
	}
	if rt.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", rt.Delay)
	}
	if rt.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %s", rt.Warmup)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	if err := validateHTTPURL(wh.URL); err != nil {
		return err
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be always or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if name, ok := strings.CutPrefix(s, "${"); ok && strings.HasSuffix(name, "}") {
		return os.Getenv(strings.TrimSuffix(name, "}"))
	}
	if name, ok := strings.CutPrefix(s, "$"); ok {
		return os.Getenv(name)
	}
	return s
}
