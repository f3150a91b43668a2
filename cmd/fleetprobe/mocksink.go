package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/fleetprobe/internal/mocksink"
)

func mocksinkCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "mocksink",
		Short: "Run a local sink that validates and logs received events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), logLevel, logFormat, "")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", listen, err)
			}
			return serveSink(ctx, ln, logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8998", "address to listen on")
	return cmd
}

// serveSink serves the mock sink on ln until ctx is cancelled.
func serveSink(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	sink := mocksink.New(logger)
	httpServer := &http.Server{
		Handler:           sink.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete", "payloads", len(sink.Payloads()))
	return nil
}
