package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sowinskl/retrycmd/retry"
	"github.com/sowinskl/retrycmd/syscmd"
)

var (
	ErrCommandRequired     = errors.New("command is required")
	ErrInvalidMaxAttempts  = errors.New("max_attempts must be at least 1")
	ErrConflictingTimeouts = errors.New("specify only one of timeout_minutes or timeout_seconds")
	ErrNegativeDuration    = errors.New("durations must not be negative")
	ErrInvalidPollInterval = errors.New("polling_interval_seconds must be greater than 0")
	ErrInvalidMultiplier   = errors.New("retry_wait_multiplier must not be negative")
	ErrInvalidLogFormat    = errors.New(`log_format must be "text", "json" or "actions"`)
	ErrAMQPExchange        = errors.New("amqp_exchange or amqp_routing_key is required with amqp_url")
)

// Validate checks the configuration. It does not check the shell, which
// depends on the target OS; see Build.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, ErrCommandRequired)
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, ErrInvalidMaxAttempts)
	}
	if c.TimeoutMinutes > 0 && c.TimeoutSeconds > 0 {
		errs = append(errs, ErrConflictingTimeouts)
	}
	if c.TimeoutMinutes < 0 || c.TimeoutSeconds < 0 || c.RetryWaitSeconds < 0 || c.RetryWaitMaxSeconds < 0 {
		errs = append(errs, ErrNegativeDuration)
	}
	if c.PollingIntervalSeconds <= 0 {
		errs = append(errs, ErrInvalidPollInterval)
	}
	if c.RetryWaitMultiplier < 0 {
		errs = append(errs, ErrInvalidMultiplier)
	}
	if _, err := retry.ParsePolicy(c.RetryOn); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.pattern(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json", "actions":
	default:
		errs = append(errs, ErrInvalidLogFormat)
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" && c.AMQPRoutingKey == "" {
		errs = append(errs, ErrAMQPExchange)
	}

	return errors.Join(errs...)
}

func (c *Config) pattern() (*syscmd.Pattern, error) {
	sources, err := syscmd.ParseSources(c.RetryOnPatternSource)
	if err != nil {
		return nil, err
	}
	p, err := syscmd.CompilePattern(c.RetryOnPattern, sources)
	if err != nil {
		return nil, fmt.Errorf("retry_on_pattern: %w", err)
	}
	return p, nil
}
