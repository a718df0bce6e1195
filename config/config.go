// Package config provides configuration management for retrycmd.
package config

import "time"

// Config holds all configuration options for a run. Field names follow the
// action inputs, so INPUT_MAX_ATTEMPTS populates MaxAttempts.
type Config struct {
	// Command
	Command           string `mapstructure:"command"`
	NewCommandOnRetry string `mapstructure:"new_command_on_retry"`
	Shell             string `mapstructure:"shell"` // empty = OS default
	OnRetryCommand    string `mapstructure:"on_retry_command"`

	// Attempts
	MaxAttempts            int     `mapstructure:"max_attempts"`
	TimeoutMinutes         float64 `mapstructure:"timeout_minutes"`
	TimeoutSeconds         float64 `mapstructure:"timeout_seconds"`
	PollingIntervalSeconds float64 `mapstructure:"polling_interval_seconds"`
	RetryWaitSeconds       float64 `mapstructure:"retry_wait_seconds"`
	RetryWaitMultiplier    float64 `mapstructure:"retry_wait_multiplier"` // <= 1 = constant
	RetryWaitMaxSeconds    float64 `mapstructure:"retry_wait_max_seconds"`

	// Retry policy
	RetryOn              string `mapstructure:"retry_on"`           // any, timeout, error
	RetryOnExitCode      int    `mapstructure:"retry_on_exit_code"` // 0 = any code
	RetryOnPattern       string `mapstructure:"retry_on_pattern"`
	RetryOnPatternSource string `mapstructure:"retry_on_pattern_source"` // stdout, stderr, both

	// Reporting
	WarningOnRetry  bool   `mapstructure:"warning_on_retry"`
	ContinueOnError bool   `mapstructure:"continue_on_error"`
	OutputFile      string `mapstructure:"output_file"`

	// Observability
	LogFormat          string `mapstructure:"log_format"` // text, json, actions
	LogLevel           string `mapstructure:"log_level"`
	MetricsTextfile    string `mapstructure:"metrics_textfile"`
	MetricsPushgateway string `mapstructure:"metrics_pushgateway"`
	MetricsJob         string `mapstructure:"metrics_job"`

	// Result events
	AMQPURL        string `mapstructure:"amqp_url"`
	AMQPExchange   string `mapstructure:"amqp_exchange"`
	AMQPRoutingKey string `mapstructure:"amqp_routing_key"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		MaxAttempts:            3,
		PollingIntervalSeconds: 1,
		RetryWaitSeconds:       10,
		RetryWaitMultiplier:    1,
		RetryOn:                "any",
		RetryOnPatternSource:   "both",
		WarningOnRetry:         true,

		LogFormat:  "actions",
		LogLevel:   "info",
		MetricsJob: "retrycmd",

		AMQPRoutingKey: "retrycmd.result",
	}
}

// Timeout returns the attempt deadline, 0 when unbounded.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMinutes > 0 {
		return seconds(c.TimeoutMinutes * 60)
	}
	return seconds(c.TimeoutSeconds)
}

// PollInterval returns the completion polling interval.
func (c *Config) PollInterval() time.Duration {
	return seconds(c.PollingIntervalSeconds)
}

// RetryWait returns the base cooldown after a failed attempt.
func (c *Config) RetryWait() time.Duration {
	return seconds(c.RetryWaitSeconds)
}

// RetryWaitMax caps the cooldown when it grows exponentially.
func (c *Config) RetryWaitMax() time.Duration {
	return seconds(c.RetryWaitMaxSeconds)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
