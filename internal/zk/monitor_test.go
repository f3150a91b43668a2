package zk_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/fleetprobe/internal/event"
	"github.com/hazz-dev/fleetprobe/internal/metrics"
	"github.com/hazz-dev/fleetprobe/internal/probe"
	"github.com/hazz-dev/fleetprobe/internal/zk"
)

type cannedCollector map[string]string

func (c cannedCollector) Collect(ctx context.Context, host string) (string, error) {
	raw, ok := c[host]
	if !ok {
		return "", &zk.ProbeError{Kind: zk.ConnectTimeout, Host: host, Err: context.DeadlineExceeded}
	}
	return raw, nil
}

var zooTemplate = event.Template{Service: "state", Tags: []string{"zoo", "monitoring"}}

func TestMonitor_Events(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	c := cannedCollector{
		"z1.example.com": followerMntr,
		"z2.example.com": leaderMntr("1"),
	}
	m := zk.NewMonitor(c, 2, zooTemplate, logger)

	events := m.Events(context.Background(), []string{"z1.example.com", "z2.example.com", "z3.example.com"})

	require.Len(t, events, 2)
	assert.Equal(t, "z1", events[0].Host)
	assert.Equal(t, event.StatusOK, events[0].Status)
	assert.Equal(t, "follower", events[0].Description)
	assert.Equal(t, "z2", events[1].Host)
	assert.Equal(t, event.StatusWarn, events[1].Status)
	assert.Equal(t, "leader. followers: 1/2", events[1].Description)
	assert.Equal(t, []string{"zoo", "monitoring"}, events[1].Tags)

	assert.Contains(t, logs.String(), "host=z3.example.com")
	assert.Contains(t, logs.String(), "kind=connect_timeout")
}

func TestMonitor_MalformedResponseIsCrit(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	m := zk.NewMonitor(cannedCollector{"z1": "zk_version\t3.8.4\n"}, 0, zooTemplate, logger)
	events := m.Events(context.Background(), []string{"z1"})

	require.Len(t, events, 1)
	assert.Equal(t, event.StatusCrit, events[0].Status)
	assert.Contains(t, events[0].Description, "zk_server_state")
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestMonitor_AllFailed(t *testing.T) {
	c := probe.CollectorFunc[string](func(ctx context.Context, host string) (string, error) {
		return "", &zk.ProbeError{Kind: zk.ConnectError, Host: host, Err: errors.New("refused")}
	})
	m := zk.NewMonitor(c, 2, zooTemplate, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	events := m.Events(context.Background(), []string{"z1", "z2", "z3"})
	assert.Empty(t, events)
}

func TestMonitor_RecordsMetrics(t *testing.T) {
	rec := metrics.NewRecorder("zoo")
	m := zk.NewMonitor(cannedCollector{"z1": followerMntr}, 1, zooTemplate, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	m.SetRecorder(rec)

	m.Events(context.Background(), []string{"z1", "z2"})

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "fleetprobe_probe_up")
	assert.Contains(t, names, "fleetprobe_probe_failures_total")
}
