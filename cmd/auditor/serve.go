package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/server"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit engine as an HTTP service",
		Long: `Start an HTTP server exposing the audit engine. POST extracted
invoice data to /api/v1/audit and receive the full audit report as
JSON. History persists in the configured database across requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			if port > 0 {
				app.cfg.Server.Port = port
			}

			app.logger.Info("Starting invoice audit service",
				zap.Int("port", app.cfg.Server.Port),
				zap.String("policy_dir", app.cfg.Audit.PolicyDir),
				zap.Bool("external_checker", app.cfg.OpenAI.Enabled))

			srv := server.NewServer(app.cfg.Server, app.auditor, app.policies, app.store, app.logger)
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}
