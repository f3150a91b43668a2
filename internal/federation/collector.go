package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultPort    = 15672
	DefaultTimeout = 3 * time.Second

	linksPath = "/api/federation-links"
)

// ProbeError is the failure of a single federation-links request. Unlike the
// mntr probe it carries no sub-classification.
type ProbeError struct {
	Host string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("failed to reach RMQ %s: %v", e.Host, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Class returns the failure kind as a label value.
func (e *ProbeError) Class() string { return "request_error" }

// Collector fetches federation links from one broker's management API.
type Collector struct {
	Port     int
	Login    string
	Password string
	Client   *http.Client
}

// NewCollector returns a Collector whose requests are bounded by timeout.
// Zero values select the defaults.
func NewCollector(port int, login, password string, timeout time.Duration) *Collector {
	if port == 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Collector{
		Port:     port,
		Login:    login,
		Password: password,
		Client:   &http.Client{Timeout: timeout},
	}
}

// URL returns the federation-links endpoint for host.
func (c *Collector) URL(host string) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + linksPath
}

// Collect requests the link list from host. Every error it returns is a
// *ProbeError.
func (c *Collector) Collect(ctx context.Context, host string) ([]Link, error) {
	links, err := c.fetch(ctx, host)
	if err != nil {
		return nil, &ProbeError{Host: host, Err: err}
	}
	return links, nil
}

func (c *Collector) fetch(ctx context.Context, host string) ([]Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(host), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.Login, c.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("management API returned status %d", resp.StatusCode)
	}

	var links []Link
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		return nil, fmt.Errorf("decoding federation links: %w", err)
	}
	return links, nil
}
