package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hazz-dev/fleetprobe/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fleetprobe",
		Short:        "One-shot health probes for coordination ensembles and broker federation",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file path (environment overrides it)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(versionCmd())
	root.AddCommand(zooCmd())
	root.AddCommand(federationCmd())
	root.AddCommand(mocksinkCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fleetprobe %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// newLogger builds the process logger. monitor may be empty.
func newLogger(w io.Writer, level, format, monitor string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", format)
	}

	logger := slog.New(h).With("run_id", uuid.NewString())
	if monitor != "" {
		logger = logger.With("monitor", monitor)
	}
	return logger, nil
}
