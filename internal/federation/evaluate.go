package federation

import (
	"fmt"
	"strings"

	"github.com/hazz-dev/fleetprobe/internal/event"
)

// HostLinks is the link list reported by one broker.
type HostLinks struct {
	Host  string
	Links []Link
}

// node returns the name used in the description header for this report.
func (h HostLinks) node() string {
	if len(h.Links) > 0 && h.Links[0].Node != "" {
		return NodeName(h.Links[0].Node)
	}
	return h.Host
}

// Evaluate folds the link lists of every surviving broker into one verdict:
// OK when every link is running, WARN otherwise. Reports are described in the
// order given.
func Evaluate(reports []HostLinks) event.Verdict {
	status := event.StatusOK
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Federation %s upstreams status:", r.node())
		for _, l := range r.Links {
			if l.Status != StatusRunning {
				status = event.StatusWarn
			}
			fmt.Fprintf(&b, "\n%s: %s", UpstreamName(l.Upstream), l.Status)
		}
	}
	return event.Verdict{Status: status, Description: b.String()}
}
