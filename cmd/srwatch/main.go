// CLAUDE:SUMMARY CLI entry point for srwatch: serve the ingest pipeline, replay capture files, validate recorded output.
// Command srwatch records mobile screen captures as replayable event logs.
//
// Usage:
//
//	srwatch serve --config srwatch.yaml     # HTTP/spool ingest to configured sinks
//	srwatch replay capture.jsonl            # print enriched records for a capture
//	srwatch validate records.jsonl          # schema-check recorded output
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:          "srwatch",
		Short:        "Session replay recorder: wireframe captures in, enriched records out",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(logLevel))
	}

	root.AddCommand(newServeCmd(), newReplayCmd(), newValidateCmd())
	return root
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("srwatch: "+format, args...)
}
