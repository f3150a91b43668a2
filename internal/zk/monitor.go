package zk

import (
	"context"
	"log/slog"

	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/metrics"
	"github.com/hazz-dev/fleetprobe/internal/probe"
)

// Monitor sweeps an ensemble and emits one event per reachable node.
type Monitor struct {
	collector         probe.Collector[string]
	expectedFollowers int
	template          event.Template
	recorder          *metrics.Recorder
	logger            *slog.Logger
}

// NewMonitor creates a Monitor. Pass nil logger to use the default logger.
func NewMonitor(c probe.Collector[string], expectedFollowers int, tmpl event.Template, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		collector:         c,
		expectedFollowers: expectedFollowers,
		template:          tmpl,
		logger:            logger,
	}
}

// SetRecorder attaches a metrics recorder.
func (m *Monitor) SetRecorder(r *metrics.Recorder) {
	m.recorder = r
}

// Events probes hosts and evaluates every survivor. Unreachable nodes are
// logged and left out. A node whose mntr output lacks the keys its verdict
// needs is reported as CRIT.
func (m *Monitor) Events(ctx context.Context, hosts []string) []event.Event {
	outcomes := probe.Dispatch(ctx, hosts, m.collector)
	metrics.ObserveOutcomes(m.recorder, outcomes)

	survivors := probe.Survivors(outcomes, m.logger)
	events := make([]event.Event, 0, len(survivors))
	for _, o := range survivors {
		v, err := Evaluate(o.Metrics, m.expectedFollowers)
		if err != nil {
			m.logger.Error("evaluating mntr response", "host", o.Host, "error", err)
			v = event.Verdict{Status: event.StatusCrit, Description: err.Error()}
		}
		events = append(events, m.template.New(event.ShortHost(o.Host), v))
	}
	return events
}
