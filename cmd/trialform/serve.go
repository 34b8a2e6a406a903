package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/G-Node/trialform/trialform"
	"github.com/G-Node/trialform/trialform/config"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       uint16
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the signup form over HTTP",
		Long: `Start the web service and wait for SIGINT or SIGTERM.

Routes:
  GET  /          the signup form
  POST /          submit the form
  POST /focus     clear a field's error
  GET  /events    websocket of form state changes
  GET  /log       submission log (no submitted values are stored)
  GET  /metrics   Prometheus metrics
  GET  /healthz   health check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}

			logger := log.New(os.Stderr, "", log.LstdFlags)
			srv, err := trialform.NewService(cfg, nil, logger)
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				srv.Stop()
				return err
			}
			defer srv.Stop()
			srv.WaitForInterrupt()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trialform.yaml", "YAML configuration file (skipped if missing)")
	cmd.Flags().Uint16VarP(&port, "port", "p", 3000, "Port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "trialform.db", "Path of the sqlite database")

	return cmd
}
