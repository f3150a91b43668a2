// Package event holds the normalized alert schema understood by the sink.
package event

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the tri-state health level of an event.
type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusCrit Status = "CRIT"
)

// Valid reports whether s is one of the known levels.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusWarn, StatusCrit:
		return true
	}
	return false
}

// Verdict is a health judgment derived from raw metrics.
type Verdict struct {
	Status      Status
	Description string
}

// Event is a single alert sent to the sink.
type Event struct {
	Host        string   `json:"host"`
	Service     string   `json:"service"`
	Instance    string   `json:"instance"`
	Status      Status   `json:"status"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Payload is the body of one POST to the sink.
type Payload struct {
	Source string  `json:"source"`
	Events []Event `json:"events"`
}

// ErrNoEvents is returned when a sweep produced nothing to send.
var ErrNoEvents = errors.New("no events to send")

// Validate checks the payload against the sink schema.
func (p Payload) Validate() error {
	if p.Source == "" {
		return fmt.Errorf("source is required")
	}
	if len(p.Events) == 0 {
		return ErrNoEvents
	}
	for i, e := range p.Events {
		if e.Host == "" {
			return fmt.Errorf("events[%d]: host is required", i)
		}
		if e.Service == "" {
			return fmt.Errorf("events[%d]: service is required", i)
		}
		if !e.Status.Valid() {
			return fmt.Errorf("events[%d]: invalid status %q", i, e.Status)
		}
	}
	return nil
}

// Template carries the fields shared by every event a monitor emits.
type Template struct {
	Service    string
	Instance   string
	HostSuffix string
	Tags       []string
}

// New builds an event for host from v.
func (t Template) New(host string, v Verdict) Event {
	// The sink rejects a null tag list.
	tags := make([]string, len(t.Tags))
	copy(tags, t.Tags)
	return Event{
		Host:        host + t.HostSuffix,
		Service:     t.Service,
		Instance:    t.Instance,
		Status:      v.Status,
		Description: v.Description,
		Tags:        tags,
	}
}

// ShortHost returns the first dot-delimited label of host.
func ShortHost(host string) string {
	name, _, _ := strings.Cut(host, ".")
	return name
}
