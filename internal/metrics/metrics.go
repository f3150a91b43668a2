// Package metrics records per-run probe statistics in a private Prometheus
// registry and pushes them to a Pushgateway. A one-shot sweep has no scrape
// endpoint, so the registry is built fresh for every run.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/probe"
)

// Recorder holds the collectors for one sweep. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	probeDuration *prometheus.HistogramVec
	probeUp       *prometheus.GaugeVec
	probeFailures *prometheus.CounterVec
	events        *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// NewRecorder creates a Recorder whose series carry a constant monitor label.
func NewRecorder(monitor string) *Recorder {
	labels := prometheus.Labels{"monitor": monitor}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "fleetprobe_probe_duration_seconds",
				Help:        "Time spent probing a single host",
				ConstLabels: labels,
				Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"outcome"},
		),
		probeUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "fleetprobe_probe_up",
				Help:        "Whether the last probe of a host succeeded (1) or failed (0)",
				ConstLabels: labels,
			},
			[]string{"host"},
		),
		probeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "fleetprobe_probe_failures_total",
				Help:        "Failed probes by failure kind",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "fleetprobe_events_total",
				Help:        "Events produced by status",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "fleetprobe_last_success_timestamp_seconds",
				Help:        "Unix time of the last sweep whose payload was accepted by the sink",
				ConstLabels: labels,
			},
		),
	}
	r.registry.MustRegister(r.probeDuration, r.probeUp, r.probeFailures, r.events, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry (for gathering or testing).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveProbe records the result of one host probe.
func (r *Recorder) ObserveProbe(host string, d time.Duration, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.probeDuration.WithLabelValues("failure").Observe(d.Seconds())
		r.probeUp.WithLabelValues(host).Set(0)
		r.probeFailures.WithLabelValues(probe.KindOf(err)).Inc()
		return
	}
	r.probeDuration.WithLabelValues("success").Observe(d.Seconds())
	r.probeUp.WithLabelValues(host).Set(1)
}

// ObserveOutcomes records every outcome of a dispatch.
func ObserveOutcomes[T any](r *Recorder, outcomes []probe.Outcome[T]) {
	if r == nil {
		return
	}
	for _, o := range outcomes {
		r.ObserveProbe(o.Host, o.Duration, o.Err)
	}
}

// ObserveEvents counts events by status.
func (r *Recorder) ObserveEvents(events []event.Event) {
	if r == nil {
		return
	}
	for _, e := range events {
		r.events.WithLabelValues(string(e.Status)).Inc()
	}
}

// MarkSuccess stamps the last successful publish time.
func (r *Recorder) MarkSuccess(t time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.Set(float64(t.Unix()))
}

// Push replaces the job's metrics on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, client *http.Client, url, job string) error {
	if r == nil {
		return nil
	}
	p := push.New(url, job).Gatherer(r.registry)
	if client != nil {
		p = p.Client(client)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
