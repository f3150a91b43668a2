package federation

import (
	"context"
	"log/slog"

	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/metrics"
	"github.com/hazz-dev/fleetprobe/internal/probe"
)

// Monitor sweeps the brokers of one cluster and emits a single event covering
// every link they report.
type Monitor struct {
	collector probe.Collector[[]Link]
	template  event.Template
	eventHost string
	recorder  *metrics.Recorder
	logger    *slog.Logger
}

// NewMonitor creates a Monitor. eventHost names the cluster in the emitted
// event; when empty the node name of the first reachable broker is used.
func NewMonitor(c probe.Collector[[]Link], tmpl event.Template, eventHost string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		collector: c,
		template:  tmpl,
		eventHost: eventHost,
		logger:    logger,
	}
}

// SetRecorder attaches a metrics recorder.
func (m *Monitor) SetRecorder(r *metrics.Recorder) {
	m.recorder = r
}

// Events probes hosts and returns one aggregated event, or none when every
// broker failed.
func (m *Monitor) Events(ctx context.Context, hosts []string) []event.Event {
	outcomes := probe.Dispatch(ctx, hosts, m.collector)
	metrics.ObserveOutcomes(m.recorder, outcomes)

	survivors := probe.Survivors(outcomes, m.logger)
	if len(survivors) == 0 {
		return nil
	}

	reports := make([]HostLinks, 0, len(survivors))
	for _, o := range survivors {
		m.logger.Debug("federation links", "host", o.Host, "links", len(o.Metrics))
		reports = append(reports, HostLinks{Host: o.Host, Links: o.Metrics})
	}

	host := m.eventHost
	if host == "" {
		host = reports[0].node()
	}
	return []event.Event{m.template.New(host, Evaluate(reports))}
}
