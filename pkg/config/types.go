// Package config provides configuration loading and validation for startlat.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogFile is the timestamp log the runtime appends to. It is truncated
	// before each measured batch.
	LogFile string `yaml:"log_file"`

	// LogSources lists extra files or globs (e.g. rotated logs) read together
	// with LogFile when looking up runs. They are never truncated.
	LogSources []string `yaml:"log_sources,omitempty"`

	// TruncateAfter empties LogFile once a batch has been summarized.
	TruncateAfter bool `yaml:"truncate_after,omitempty"`

	Runtime     RuntimeConfig     `yaml:"runtime"`
	Webhooks    []WebhookConfig   `yaml:"webhooks,omitempty"`
	Pushgateway PushgatewayConfig `yaml:"pushgateway,omitempty"`
	History     HistoryConfig     `yaml:"history,omitempty"`
}

// RuntimeConfig describes how to start and remove the measured container.
type RuntimeConfig struct {
	// RunCommand starts one container and prints its ID on the last line.
	RunCommand []string `yaml:"run_command"`

	// DeleteCommand removes the container and prints its name on the last line.
	DeleteCommand []string `yaml:"delete_command"`

	// ContainerName is the name DeleteCommand must echo back on success.
	ContainerName string `yaml:"container_name"`

	// Delay is the wait between starting and removing a container.
	Delay time.Duration `yaml:"delay"`

	// Warmup is the wait before the first iteration.
	Warmup time.Duration `yaml:"warmup"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every summarized batch (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint receiving batch reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// PushgatewayConfig enables pushing batch statistics to a Prometheus
// Pushgateway. An empty URL disables it.
type PushgatewayConfig struct {
	URL string `yaml:"url,omitempty"`
	Job string `yaml:"job,omitempty"`
}

// HistoryConfig enables storing batch summaries in a SQLite database.
// An empty Path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}
