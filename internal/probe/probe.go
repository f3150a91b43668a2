// Package probe fans a collector out over a host list and joins the results in
// input order.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Collector fetches raw metrics of type T from a single host. Implementations
// bound their own I/O with timeouts; Dispatch adds none.
type Collector[T any] interface {
	Collect(ctx context.Context, host string) (T, error)
}

// CollectorFunc adapts an ordinary function to a Collector.
type CollectorFunc[T any] func(ctx context.Context, host string) (T, error)

// Collect calls f(ctx, host).
func (f CollectorFunc[T]) Collect(ctx context.Context, host string) (T, error) {
	return f(ctx, host)
}

// Outcome is the result of probing one host. Metrics is meaningful only when
// Err is nil.
type Outcome[T any] struct {
	Host     string
	Metrics  T
	Err      error
	Duration time.Duration
}

// OK reports whether the probe succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Dispatch probes every host concurrently and returns exactly one outcome per
// host. outcomes[i] always belongs to hosts[i].
func Dispatch[T any](ctx context.Context, hosts []string, c Collector[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(hosts))

	var g errgroup.Group
	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			outcomes[i] = collect(ctx, host, c)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func collect[T any](ctx context.Context, host string, c Collector[T]) (out Outcome[T]) {
	start := time.Now()
	out.Host = host
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out.Metrics = zero
			out.Err = fmt.Errorf("probe of %s panicked: %v", host, r)
		}
		out.Duration = time.Since(start)
	}()
	out.Metrics, out.Err = c.Collect(ctx, host)
	return out
}

// classifier is implemented by probe errors that carry a failure kind.
type classifier interface {
	Class() string
}

// KindOf returns the failure kind carried by err, or "error" when err does not
// carry one.
func KindOf(err error) string {
	var c classifier
	if errors.As(err, &c) {
		return c.Class()
	}
	return "error"
}

// Survivors logs every failed outcome at warn level and returns the successful
// ones in input order. Failed hosts are dropped for this run.
func Survivors[T any](outcomes []Outcome[T], logger *slog.Logger) []Outcome[T] {
	if logger == nil {
		logger = slog.Default()
	}
	survivors := make([]Outcome[T], 0, len(outcomes))
	for _, o := range outcomes {
		if !o.OK() {
			logger.Warn("dropping host",
				"host", o.Host,
				"kind", KindOf(o.Err),
				"duration", o.Duration,
				"error", o.Err,
			)
			continue
		}
		logger.Debug("probe succeeded", "host", o.Host, "duration", o.Duration)
		survivors = append(survivors, o)
	}
	return survivors
}
