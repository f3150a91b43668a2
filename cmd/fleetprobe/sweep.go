package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/fleetprobe/internal/config"
	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/federation"
	"github.com/hazz-dev/fleetprobe/internal/metrics"
	"github.com/hazz-dev/fleetprobe/internal/publish"
	"github.com/hazz-dev/fleetprobe/internal/sweep"
	"github.com/hazz-dev/fleetprobe/internal/zk"
)

// job is one configured sweep plus the metrics that accompany it.
type job struct {
	runner   *sweep.Runner
	recorder *metrics.Recorder
	metrics  config.MetricsConfig
	// pushTimeout bounds the Pushgateway request.
	pushTimeout time.Duration
	logger      *slog.Logger
}

func zooCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "zoo",
		Short: "Probe every ensemble node with mntr and publish one event per node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, "zoo", dryRun, buildZoo)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print events instead of publishing them")
	return cmd
}

func federationCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:     "rmq",
		Aliases: []string{"federation"},
		Short:   "Probe broker federation links and publish one aggregated event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, "rmq", dryRun, buildFederation)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print events instead of publishing them")
	return cmd
}

type buildFunc func(cfg *config.Config, dryRun bool, logger *slog.Logger) (*job, error)

func runMonitor(cmd *cobra.Command, monitor string, dryRun bool, build buildFunc) error {
	logger, err := newLogger(cmd.ErrOrStderr(), logLevel, logFormat, monitor)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	j, err := build(cfg, dryRun, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return executeSweep(ctx, cmd.OutOrStdout(), j, dryRun)
}

// validate runs check, tolerating a missing sink when nothing will be sent.
func validate(check func() error, dryRun bool) error {
	err := check()
	if dryRun && errors.Is(err, config.ErrNoSink) {
		return nil
	}
	return err
}

func buildZoo(cfg *config.Config, dryRun bool, logger *slog.Logger) (*job, error) {
	if err := validate(cfg.ValidateZoo, dryRun); err != nil {
		return nil, err
	}
	zc := cfg.Zoo
	rec := metrics.NewRecorder("zoo")

	collector := zk.NewCollector(zc.Port, zc.ConnectTimeout.Duration, zc.ReadTimeout.Duration)
	mon := zk.NewMonitor(collector, zc.Expected(), zc.Event.Template(), logger)
	mon.SetRecorder(rec)

	logger.Debug("config loaded", "hosts", len(zc.Hosts), "expected_followers", zc.Expected())
	return newJob(cfg, zc.Source, zc.Hosts, mon, rec, logger), nil
}

func buildFederation(cfg *config.Config, dryRun bool, logger *slog.Logger) (*job, error) {
	if err := validate(cfg.ValidateFederation, dryRun); err != nil {
		return nil, err
	}
	fc := cfg.Federation
	rec := metrics.NewRecorder("rmq")

	collector := federation.NewCollector(fc.Port, fc.Login, fc.Password, fc.Timeout.Duration)
	mon := federation.NewMonitor(collector, fc.Event.Template(), fc.Event.Host, logger)
	mon.SetRecorder(rec)

	logger.Debug("config loaded", "hosts", len(fc.Hosts))
	return newJob(cfg, fc.Source, fc.Hosts, mon, rec, logger), nil
}

func newJob(cfg *config.Config, source string, hosts []string, mon sweep.Monitor, rec *metrics.Recorder, logger *slog.Logger) *job {
	pub := publish.New(cfg.Sink.URL, cfg.Sink.Timeout.Duration, logger)
	r := sweep.New(source, hosts, mon, pub, logger)
	r.SetRecorder(rec)
	return &job{
		runner:      r,
		recorder:    rec,
		metrics:     cfg.Metrics,
		pushTimeout: cfg.Sink.Timeout.Duration,
		logger:      logger,
	}
}

// executeSweep runs j once. In dry-run mode the payload is printed to out
// instead of being published. Metrics are pushed either way.
func executeSweep(ctx context.Context, out io.Writer, j *job, dryRun bool) error {
	var err error
	if dryRun {
		var payload event.Payload
		if payload, err = j.runner.Collect(ctx); err == nil {
			printPayload(out, payload)
		}
	} else {
		err = j.runner.Run(ctx)
	}
	pushMetrics(ctx, j)
	return err
}

func pushMetrics(ctx context.Context, j *job) {
	if j.metrics.PushgatewayURL == "" {
		return
	}
	client := &http.Client{Timeout: j.pushTimeout}
	if err := j.recorder.Push(ctx, client, j.metrics.PushgatewayURL, j.metrics.Job); err != nil {
		j.logger.Warn("metrics push failed", "url", j.metrics.PushgatewayURL, "error", err)
		return
	}
	j.logger.Debug("metrics pushed", "url", j.metrics.PushgatewayURL, "job", j.metrics.Job)
}

func printPayload(out io.Writer, p event.Payload) {
	fmt.Fprintf(out, "source: %s\n", p.Source)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tSERVICE\tSTATUS\tDESCRIPTION")
	for _, e := range p.Events {
		desc := strings.ReplaceAll(e.Description, "\n", " | ")
		if desc == "" {
			desc = "—"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Host, e.Service, e.Status, desc)
	}
	w.Flush()
}
