package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultLogFile        = "/tmp/urunc.zlog"
	DefaultContainerName  = "redis-test"
	DefaultImage          = "harbor.nbfc.io/nubificus/urunc/redis-hvt-rump:latest"
	DefaultDelay          = 2 * time.Second
	DefaultWarmup         = 2 * time.Second
	DefaultWebhookTimeout = 10 * time.Second
	DefaultPushgatewayJob = "startlat"
)

// Environment variable names.
const (
	EnvConfigPath     = "STARTLAT_CONFIG"
	EnvLogFile        = "STARTLAT_LOG_FILE"
	EnvHistoryPath    = "STARTLAT_HISTORY_PATH"
	EnvPushgatewayURL = "STARTLAT_PUSHGATEWAY_URL"
)

// DefaultConfig returns the configuration used for urunc measurements with
// nerdctl when no file is given.
func DefaultConfig() *Config {
	return &Config{
		LogFile: DefaultLogFile,
		Runtime: RuntimeConfig{
			RunCommand: []string{
				"nerdctl", "run", "--name", DefaultContainerName, "-d",
				"--snapshotter", "devmapper",
				"--runtime", "io.containerd.uruncts.v2",
				DefaultImage,
			},
			DeleteCommand: []string{"nerdctl", "rm", "--force", DefaultContainerName},
			ContainerName: DefaultContainerName,
			Delay:         DefaultDelay,
			Warmup:        DefaultWarmup,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		c.Pushgateway.URL = v
	}
}
