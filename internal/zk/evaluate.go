package zk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hazz-dev/fleetprobe/internal/event"
)

const (
	keyServerState     = "zk_server_state"
	keySyncedFollowers = "zk_synced_followers"

	stateFollower = "follower"
)

// ParseMntr splits an mntr response into its key/value pairs. Lines without a
// tab separator are ignored.
func ParseMntr(raw string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		k, v, ok := strings.Cut(line, "\t")
		if !ok || k == "" {
			continue
		}
		m[k] = strings.TrimSpace(v)
	}
	return m
}

// Evaluate derives the verdict for one node. A follower is always OK. Any other
// state is treated as the leader, which is OK only when exactly
// expectedFollowers peers are in sync.
func Evaluate(raw string, expectedFollowers int) (event.Verdict, error) {
	m := ParseMntr(raw)

	state, ok := m[keyServerState]
	if !ok {
		return event.Verdict{}, &MetricsError{Key: keyServerState}
	}
	if state == stateFollower {
		return event.Verdict{Status: event.StatusOK, Description: stateFollower}, nil
	}

	v, ok := m[keySyncedFollowers]
	if !ok {
		return event.Verdict{}, &MetricsError{Key: keySyncedFollowers}
	}
	followers, err := strconv.Atoi(v)
	if err != nil {
		return event.Verdict{}, &MetricsError{Key: keySyncedFollowers, Value: v, Err: err}
	}
	if followers < 0 {
		return event.Verdict{}, &MetricsError{Key: keySyncedFollowers, Value: v, Err: errors.New("negative count")}
	}

	verdict := event.Verdict{
		Status:      event.StatusWarn,
		Description: fmt.Sprintf("leader. followers: %d/%d", followers, expectedFollowers),
	}
	if followers == expectedFollowers {
		verdict.Status = event.StatusOK
	}
	return verdict, nil
}
