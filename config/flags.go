package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is how the action runner passes inputs: INPUT_<NAME>.
const EnvPrefix = "INPUT"

// RegisterFlags adds one flag per Config field to fs. Flag names use dashes;
// the matching config keys and env vars use underscores.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	// Command
	fs.String("command", d.Command, "Command to run")
	fs.String("new-command-on-retry", d.NewCommandOnRetry, "Command to run on attempts after the first")
	fs.String("shell", d.Shell, `Shell to run the command with: bash, sh, python, pwsh, cmd, powershell (default: bash, powershell on windows)`)
	fs.String("on-retry-command", d.OnRetryCommand, "Command to run before each retry")

	// Attempts
	fs.Int("max-attempts", d.MaxAttempts, "Number of attempts to make before failing")
	fs.Float64("timeout-minutes", d.TimeoutMinutes, "Minutes to wait before an attempt times out")
	fs.Float64("timeout-seconds", d.TimeoutSeconds, "Seconds to wait before an attempt times out")
	fs.Float64("polling-interval-seconds", d.PollingIntervalSeconds, "Seconds between completion checks")
	fs.Float64("retry-wait-seconds", d.RetryWaitSeconds, "Seconds to wait after a failed attempt")
	fs.Float64("retry-wait-multiplier", d.RetryWaitMultiplier, "Grow the wait by this factor after each failure (<= 1 keeps it constant)")
	fs.Float64("retry-wait-max-seconds", d.RetryWaitMaxSeconds, "Upper bound for a growing wait (0 = none)")

	// Retry policy
	fs.String("retry-on", d.RetryOn, `Failures to retry: "any", "timeout" or "error"`)
	fs.Int("retry-on-exit-code", d.RetryOnExitCode, "Only retry this exit code (0 = any)")
	fs.String("retry-on-pattern", d.RetryOnPattern, "Only retry exit errors whose output matches this regular expression")
	fs.String("retry-on-pattern-source", d.RetryOnPatternSource, `Output scanned for the pattern: "stdout", "stderr" or "both"`)

	// Reporting
	fs.Bool("warning-on-retry", d.WarningOnRetry, "Log failed attempts as warnings")
	fs.Bool("continue-on-error", d.ContinueOnError, "Exit 0 even when the command finally fails")
	fs.String("output-file", d.OutputFile, "File receiving key=value outputs (default: $GITHUB_OUTPUT)")

	// Observability
	fs.String("log-format", d.LogFormat, `Log format: "text", "json" or "actions"`)
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	fs.String("metrics-textfile", d.MetricsTextfile, "Write Prometheus metrics to this file at exit")
	fs.String("metrics-pushgateway", d.MetricsPushgateway, "Push Prometheus metrics to this Pushgateway URL at exit")
	fs.String("metrics-job", d.MetricsJob, "Pushgateway job name")

	// Result events
	fs.String("amqp-url", d.AMQPURL, "Publish the run result to this AMQP broker")
	fs.String("amqp-exchange", d.AMQPExchange, "Exchange for result events")
	fs.String("amqp-routing-key", d.AMQPRoutingKey, "Routing key for result events")
}

// Bind wires every flag in fs into v and enables INPUT_* environment
// overrides. output_file additionally falls back to $GITHUB_OUTPUT.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	if err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v.BindEnv("output_file", EnvPrefix+"_OUTPUT_FILE", "GITHUB_OUTPUT")
}

// Load decodes the settings in v on top of Default.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
