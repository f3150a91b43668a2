package zk

import "fmt"

// FailureKind classifies why a probe of a coordination-service node failed.
// The set is closed; callers may switch over it exhaustively.
type FailureKind int

const (
	// ConnectTimeout means the TCP connect exceeded its budget.
	ConnectTimeout FailureKind = iota + 1
	// ConnectError means the connect failed outright (refused, reset, DNS).
	ConnectError
	// WriteError means the command could not be written after connecting.
	WriteError
	// ReadTimeout means the response was not complete within the read budget.
	ReadTimeout
	// ReadError means reading the response failed for a non-timeout reason.
	ReadError
)

func (k FailureKind) String() string {
	switch k {
	case ConnectTimeout:
		return "connect_timeout"
	case ConnectError:
		return "connect_error"
	case WriteError:
		return "write_error"
	case ReadTimeout:
		return "read_timeout"
	case ReadError:
		return "read_error"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// ProbeError is the failure of a single mntr probe.
type ProbeError struct {
	Kind FailureKind
	Host string
	Err  error
}

func (e *ProbeError) Error() string {
	switch e.Kind {
	case ConnectTimeout:
		return fmt.Sprintf("timed out opening connection to %s: %v", e.Host, e.Err)
	case ConnectError:
		return fmt.Sprintf("failed to connect to %s: %v", e.Host, e.Err)
	case WriteError:
		return fmt.Sprintf("failed to write command to %s: %v", e.Host, e.Err)
	case ReadTimeout:
		return fmt.Sprintf("timed out reading data from %s: %v", e.Host, e.Err)
	default:
		return fmt.Sprintf("failed to read data from %s: %v", e.Host, e.Err)
	}
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Class returns the failure kind as a label value.
func (e *ProbeError) Class() string { return e.Kind.String() }

// MetricsError reports an mntr response that cannot support a verdict.
type MetricsError struct {
	Key   string
	Value string
	Err   error
}

func (e *MetricsError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("mntr response has no %s", e.Key)
	}
	return fmt.Sprintf("mntr response has invalid %s %q: %v", e.Key, e.Value, e.Err)
}

func (e *MetricsError) Unwrap() error { return e.Err }
