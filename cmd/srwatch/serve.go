package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/srkit/srwatch"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP and spool ingest until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			cfg := srwatch.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = srwatch.LoadConfigFile(configPath); err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			if cfg.Ingest.Listen == "" && cfg.Ingest.SpoolDir == "" {
				return usageErr("serve: neither ingest.listen nor ingest.spool_dir is set")
			}

			sinks, err := srwatch.BuildSinks(cfg, logger)
			if err != nil {
				return err
			}
			rec, err := srwatch.New(cfg, sinks, srwatch.WithLogger(logger))
			if err != nil {
				return err
			}
			logger.Info("srwatch: serving",
				"listen", cfg.Ingest.Listen, "spool_dir", cfg.Ingest.SpoolDir, "sinks", len(sinks))
			return rec.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to srwatch.yaml or srwatch.toml")
	return cmd
}
