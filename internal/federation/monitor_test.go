package federation_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/federation"
	"github.com/hazz-dev/fleetprobe/internal/probe"
)

type cannedBrokers map[string][]federation.Link

func (c cannedBrokers) Collect(ctx context.Context, host string) ([]federation.Link, error) {
	links, ok := c[host]
	if !ok {
		return nil, &federation.ProbeError{Host: host, Err: errors.New("connection refused")}
	}
	return links, nil
}

var rmqTemplate = event.Template{Service: "federation", HostSuffix: "-test"}

func TestMonitor_SingleAggregatedEvent(t *testing.T) {
	var logs bytes.Buffer
	c := cannedBrokers{
		"rmq1": {link("rabbit@rmq1.example.com", "db.sync", federation.StatusRunning)},
		"rmq2": {link("rabbit@rmq2.example.com", "cache.sync", federation.StatusShutdown)},
	}
	m := federation.NewMonitor(c, rmqTemplate, "", slog.New(slog.NewTextHandler(&logs, nil)))

	events := m.Events(context.Background(), []string{"rmq1", "rmq2", "rmq3"})

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "rmq1.example.com-test", e.Host)
	assert.Equal(t, "federation", e.Service)
	assert.Equal(t, event.StatusWarn, e.Status)
	assert.Contains(t, e.Description, "db: running")
	assert.Contains(t, e.Description, "cache: shutdown")
	assert.NotNil(t, e.Tags)

	assert.Contains(t, logs.String(), "host=rmq3")
}

func TestMonitor_EventHostOverride(t *testing.T) {
	c := cannedBrokers{"rmq1": {link("rabbit@rmq1", "db", federation.StatusRunning)}}
	m := federation.NewMonitor(c, event.Template{Service: "federation"}, "rmq-cluster", nil)

	events := m.Events(context.Background(), []string{"rmq1"})

	require.Len(t, events, 1)
	assert.Equal(t, "rmq-cluster", events[0].Host)
	assert.Equal(t, event.StatusOK, events[0].Status)
}

func TestMonitor_AllFailed(t *testing.T) {
	c := probe.CollectorFunc[[]federation.Link](func(ctx context.Context, host string) ([]federation.Link, error) {
		return nil, &federation.ProbeError{Host: host, Err: errors.New("timeout")}
	})
	m := federation.NewMonitor(c, rmqTemplate, "", slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Empty(t, m.Events(context.Background(), []string{"rmq1", "rmq2"}))
}
