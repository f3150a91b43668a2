// Package federation polls the RabbitMQ management API for federation link
// state and folds every broker's links into a single cluster verdict.
package federation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LinkStatus is the normalized state of a federation link.
type LinkStatus string

const (
	StatusRunning  LinkStatus = "running"
	StatusStarting LinkStatus = "starting"
	StatusShutdown LinkStatus = "shutdown"
)

// ParseLinkStatus normalizes s case-insensitively.
func ParseLinkStatus(s string) (LinkStatus, error) {
	switch st := LinkStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusRunning, StatusStarting, StatusShutdown:
		return st, nil
	default:
		return "", fmt.Errorf("unknown federation link status %q", s)
	}
}

// UnmarshalJSON accepts any casing of a known status.
func (s *LinkStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseLinkStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Link is one entry of GET /api/federation-links.
type Link struct {
	Node     string     `json:"node"`
	Upstream string     `json:"upstream"`
	Status   LinkStatus `json:"status"`
}

// NodeName returns the host part of an Erlang node name such as
// "rabbit@rmq1.example.com".
func NodeName(node string) string {
	if i := strings.LastIndex(node, "@"); i >= 0 {
		return node[i+1:]
	}
	return node
}

// UpstreamName returns the first dot-delimited segment of an upstream name.
func UpstreamName(upstream string) string {
	name, _, _ := strings.Cut(upstream, ".")
	return name
}
