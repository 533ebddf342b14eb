package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/srkit/srwatch"
)

func newReplayCmd() *cobra.Command {
	var (
		configPath string
		validate   bool
	)
	cmd := &cobra.Command{
		Use:   "replay <capture.jsonl>",
		Short: "Process a capture file and print the enriched records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			events, err := srwatch.DecodeEvents(f)
			f.Close()
			if err != nil {
				return err
			}

			cfg := srwatch.DefaultConfig()
			if configPath != "" {
				if cfg, err = srwatch.LoadConfigFile(configPath); err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			cfg.Recorder.QueueSize = len(events) + 1
			cfg.ValidateRecords = cfg.ValidateRecords || validate

			rec, err := srwatch.New(cfg, []srwatch.Sink{srwatch.NewStdoutSink(cmd.OutOrStdout())},
				srwatch.WithLogger(slog.Default()),
				srwatch.WithEventTimestamps())
			if err != nil {
				return err
			}
			rec.Start(cmd.Context())
			var rejected int
			for i, ev := range events {
				if err := rec.Submit(ev); err != nil {
					slog.Warn("replay: event rejected", "index", i, "kind", ev.Kind, "error", err)
					rejected++
				}
			}
			if err := rec.Stop(); err != nil {
				return err
			}
			if rejected > 0 {
				return fmt.Errorf("replay: %d of %d events rejected", rejected, len(events))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "recorder settings (sinks are ignored)")
	cmd.Flags().BoolVar(&validate, "validate", false, "check every record against the wire schema")
	return cmd
}
