// Package zk probes ZooKeeper ensemble members with the mntr four-letter-word
// command and derives a per-node quorum verdict.
package zk

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort           = 2181
	DefaultConnectTimeout = 2000 * time.Millisecond
	DefaultReadTimeout    = 100 * time.Millisecond

	mntrCommand = "mntr"
)

// DialFunc opens a network connection. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Collector sends mntr to a single node and returns the raw response.
type Collector struct {
	Port           int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// Dial overrides the dialer (for testing). Nil uses net.Dialer.
	Dial DialFunc
}

// NewCollector returns a Collector; zero arguments select the defaults.
func NewCollector(port int, connectTimeout, readTimeout time.Duration) *Collector {
	if port == 0 {
		port = DefaultPort
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Collector{
		Port:           port,
		ConnectTimeout: connectTimeout,
		ReadTimeout:    readTimeout,
	}
}

// Collect connects to host, writes mntr and reads until EOF. Every error it
// returns is a *ProbeError.
func (c *Collector) Collect(ctx context.Context, host string) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(c.Port))

	dialCtx, cancel := context.WithTimeout(ctx, c.ConnectTimeout)
	defer cancel()

	conn, err := c.dial(dialCtx, "tcp", addr)
	if err != nil {
		kind := ConnectError
		if isTimeout(err) {
			kind = ConnectTimeout
		}
		return "", &ProbeError{Kind: kind, Host: host, Err: err}
	}
	defer conn.Close()

	// The read budget also covers the write so a wedged peer cannot stall the probe.
	if err := conn.SetDeadline(time.Now().Add(c.ReadTimeout)); err != nil {
		return "", &ProbeError{Kind: WriteError, Host: host, Err: err}
	}
	if _, err := io.WriteString(conn, mntrCommand); err != nil {
		return "", &ProbeError{Kind: WriteError, Host: host, Err: err}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		kind := ReadError
		if isTimeout(err) {
			kind = ReadTimeout
		}
		return "", &ProbeError{Kind: kind, Host: host, Err: err}
	}
	return string(data), nil
}

func (c *Collector) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	if c.Dial != nil {
		return c.Dial(ctx, network, addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
