// Package publish delivers event payloads to the alerting sink.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hazz-dev/fleetprobe/internal/event"
)

// DefaultTimeout bounds a single POST to the sink.
const DefaultTimeout = 3 * time.Second

var (
	// ErrTransport means the sink could not be reached.
	ErrTransport = errors.New("failed to reach sink")
	// ErrReply means the sink answered with something that is not JSON.
	ErrReply = errors.New("failed to parse sink response")
)

// Publisher POSTs payloads to <base>/events.
type Publisher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// New creates a Publisher for the sink at baseURL. Pass nil logger to use the
// default logger.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Publisher{
		url:    EventsURL(baseURL),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// EventsURL returns the events endpoint under the sink base URL.
func EventsURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/events"
}

// URL returns the endpoint this publisher posts to.
func (p *Publisher) URL() string {
	return p.url
}

// Publish sends payload and checks that the reply parses as JSON. The reply
// content itself is not interpreted. An empty payload is never sent.
func (p *Publisher) Publish(ctx context.Context, payload event.Payload) error {
	if len(payload.Events) == 0 {
		return event.ErrNoEvents
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("sending payload", "url", p.url, "source", payload.Source, "error", err)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		p.logger.Warn("sink returned non-2xx status", "url", p.url, "status", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("reading sink response", "url", p.url, "error", err)
		return fmt.Errorf("%w: %w", ErrReply, err)
	}
	var reply json.RawMessage
	if err := json.Unmarshal(raw, &reply); err != nil {
		p.logger.Error("parsing sink response", "url", p.url, "status", resp.StatusCode, "error", err)
		return fmt.Errorf("%w: %w", ErrReply, err)
	}

	p.logger.Info("monitoring completed successfully",
		"source", payload.Source,
		"events", len(payload.Events),
		"reply", string(reply),
	)
	return nil
}
