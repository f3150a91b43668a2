package event_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/fleetprobe/internal/event"
)

func TestTemplate_New(t *testing.T) {
	tmpl := event.Template{
		Service:    "state",
		HostSuffix: "-test",
		Tags:       []string{"zoo", "monitoring"},
	}

	e := tmpl.New("z1", event.Verdict{Status: event.StatusOK, Description: "follower"})

	assert.Equal(t, "z1-test", e.Host)
	assert.Equal(t, "state", e.Service)
	assert.Equal(t, "", e.Instance)
	assert.Equal(t, event.StatusOK, e.Status)
	assert.Equal(t, "follower", e.Description)
	assert.Equal(t, []string{"zoo", "monitoring"}, e.Tags)

	e.Tags[0] = "changed"
	assert.Equal(t, "zoo", tmpl.Tags[0], "template tags must not be shared with events")
}

func TestTemplate_New_EmptyTagsEncodeAsArray(t *testing.T) {
	e := event.Template{Service: "federation"}.New("rmq1", event.Verdict{Status: event.StatusWarn})

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"rmq1","service":"federation","instance":"","status":"WARN","description":"","tags":[]}`, string(data))
}

func TestShortHost(t *testing.T) {
	tests := map[string]string{
		"z1.example.com": "z1",
		"z1":             "z1",
		"10.0.0.1":       "10",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, event.ShortHost(in), in)
	}
}

func TestPayload_Validate(t *testing.T) {
	ok := event.Event{Host: "z1", Service: "state", Status: event.StatusOK, Tags: []string{}}

	tests := []struct {
		name    string
		payload event.Payload
		wantErr string
	}{
		{"valid", event.Payload{Source: "zoo", Events: []event.Event{ok}}, ""},
		{"missing source", event.Payload{Events: []event.Event{ok}}, "source"},
		{"no events", event.Payload{Source: "zoo"}, "no events"},
		{"bad status", event.Payload{Source: "zoo", Events: []event.Event{{Host: "z1", Service: "state", Status: "DOWN"}}}, "invalid status"},
		{"missing host", event.Payload{Source: "zoo", Events: []event.Event{{Service: "state", Status: event.StatusOK}}}, "host"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPayload_Validate_NoEventsSentinel(t *testing.T) {
	err := event.Payload{Source: "rmq"}.Validate()
	assert.True(t, errors.Is(err, event.ErrNoEvents))
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, event.StatusOK.Valid())
	assert.True(t, event.StatusWarn.Valid())
	assert.True(t, event.StatusCrit.Valid())
	assert.False(t, event.Status("ok").Valid())
}
