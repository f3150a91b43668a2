// Package sweep runs a single monitoring pass: probe the hosts, then publish the events.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/metrics"
)

// Monitor probes a host list and turns the survivors into events.
type Monitor interface {
	Events(ctx context.Context, hosts []string) []event.Event
}

// Publisher delivers a payload to the sink.
type Publisher interface {
	Publish(ctx context.Context, p event.Payload) error
}

// Runner executes a single sweep. It keeps no state between runs.
type Runner struct {
	source    string
	hosts     []string
	monitor   Monitor
	publisher Publisher
	recorder  *metrics.Recorder
	logger    *slog.Logger
}

// New creates a Runner. Pass nil logger to use the default logger.
func New(source string, hosts []string, monitor Monitor, publisher Publisher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		source:    source,
		hosts:     hosts,
		monitor:   monitor,
		publisher: publisher,
		logger:    logger,
	}
}

// SetRecorder attaches a metrics recorder.
func (r *Runner) SetRecorder(rec *metrics.Recorder) {
	r.recorder = rec
}

// Collect probes every host and builds the payload without publishing it. It
// returns event.ErrNoEvents when no host survived.
func (r *Runner) Collect(ctx context.Context) (event.Payload, error) {
	start := time.Now()
	r.logger.Debug("sweep started", "source", r.source, "hosts", len(r.hosts))

	events := r.monitor.Events(ctx, r.hosts)
	r.recorder.ObserveEvents(events)

	r.logger.Debug("sweep finished",
		"source", r.source,
		"hosts", len(r.hosts),
		"events", len(events),
		"duration", time.Since(start),
	)

	if len(events) == 0 {
		r.logger.Warn("monitoring has no events to send", "source", r.source, "hosts", len(r.hosts))
		return event.Payload{}, event.ErrNoEvents
	}
	return event.Payload{Source: r.source, Events: events}, nil
}

// Run performs a full sweep and publishes the result.
func (r *Runner) Run(ctx context.Context) error {
	payload, err := r.Collect(ctx)
	if err != nil {
		return err
	}
	if err := r.publisher.Publish(ctx, payload); err != nil {
		return err
	}
	r.recorder.MarkSuccess(time.Now())
	return nil
}
