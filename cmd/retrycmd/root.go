package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sowinskl/retrycmd/config"
	"github.com/sowinskl/retrycmd/logging"
	"github.com/sowinskl/retrycmd/metrics"
	"github.com/sowinskl/retrycmd/rabbitmq"
	"github.com/sowinskl/retrycmd/report"
	"github.com/sowinskl/retrycmd/retry"
)

var version = "dev"

const (
	appName      = "retrycmd"
	pushTimeout  = 10 * time.Second
	amqpRetries  = 2
	publishRetry = 3
)

// execute runs the CLI with args and returns the process exit code. A
// non-nil error means the run never started.
func execute(args []string, stdout, stderr io.Writer) (int, error) {
	code := 0
	root := newRootCmd(stdout, stderr, &code)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		return 1, err
	}
	return code, nil
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   appName + ` [flags] ["command"]`,
		Short: "Run a shell command, retrying on timeouts and failures",
		Long: `retrycmd runs a command through a shell and retries it when it times
out or exits with a non-zero code, up to a maximum number of attempts.

Every flag can also be set through an INPUT_<NAME> environment variable,
for example INPUT_MAX_ATTEMPTS=5. Outputs are appended to --output-file,
which defaults to $GITHUB_OUTPUT.`,
		Example: `  # Retry a flaky test suite
  retrycmd --max-attempts 5 --timeout-minutes 10 "make test"

  # Only retry when the failure looks transient
  retrycmd --retry-on error --retry-on-pattern "connection reset" "./deploy.sh"

  # Grow the wait between attempts
  retrycmd --retry-wait-seconds 5 --retry-wait-multiplier 2 "curl -f https://example.com"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Command = strings.Join(args, " ")
			}

			*code, err = run(cfg, stdout, stderr)
			return err
		},
	}

	config.RegisterFlags(root.Flags())
	// Binding only fails for a nil flag, which RegisterFlags never yields.
	_ = config.Bind(v, root.Flags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

// run executes one configured command and returns its exit code.
func run(cfg *config.Config, stdout, stderr io.Writer) (int, error) {
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, stdout)

	r, err := cfg.Build(runtime.GOOS)
	if err != nil {
		return 1, err
	}
	r.Command.Logger(logger).Output(stdout)
	r.Hook.Stdout = stdout
	r.Hook.Stderr = stderr

	outputs, err := report.OpenOutputs(cfg.OutputFile, logger)
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := outputs.Close(); err != nil {
			logger.Warnf("Failed to close output file: %v", err)
		}
	}()

	reporters := report.Multi{outputs}

	var collector *metrics.Collector
	if cfg.MetricsTextfile != "" || cfg.MetricsPushgateway != "" {
		collector = metrics.NewCollector()
		reporters = append(reporters, collector)
	}

	if cfg.AMQPURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:        cfg.AMQPURL,
			AppName:    appName,
			MaxRetries: amqpRetries,
			Logger:     logger,
		})
		if err != nil {
			logger.Warnf("Result events disabled: %v", err)
		} else {
			defer client.Close()
			target := rabbitmq.Publishing{
				Exchange:   cfg.AMQPExchange,
				RoutingKey: cfg.AMQPRoutingKey,
				RetryMax:   publishRetry,
				RetryStart: 100 * time.Millisecond,
			}
			reporters = append(reporters, report.NewEvents(client, target, cfg.Command, logger))
		}
	}

	engine := retry.New(r.Retry, r.Command,
		retry.WithHook(r.Hook),
		retry.WithReporter(reporters),
		retry.WithLogger(logger),
	)
	stop := forwardSignals(r.Command, logger)
	res := engine.Run()
	stop()

	if collector != nil {
		flushMetrics(collector, cfg, logger)
	}
	return res.ProcessExitCode(cfg.ContinueOnError), nil
}

// flushMetrics delivers collected metrics. Failures never change the exit
// code.
func flushMetrics(c *metrics.Collector, cfg *config.Config, logger logrus.FieldLogger) {
	if cfg.MetricsTextfile != "" {
		if err := c.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warnf("%v", err)
		}
	}
	if cfg.MetricsPushgateway != "" {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := c.Push(ctx, cfg.MetricsPushgateway, cfg.MetricsJob); err != nil {
			logger.Warnf("%v", err)
		}
	}
}
