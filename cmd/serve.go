package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusops/triagecore/internal/engine"
	"github.com/campusops/triagecore/internal/observability"
	"github.com/campusops/triagecore/internal/server"
	"github.com/campusops/triagecore/internal/store"
	"github.com/campusops/triagecore/internal/triage"
)

// newServeCmd creates the `serve` command: the HTTP preview and triage
// surface backed by the in-memory store.
func newServeCmd(opts *rootOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring and triage server",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			// Bind only flags the operator actually set, so the zero-valued
			// flag defaults never shadow the config file or environment.
			if cmd.Flags().Changed("listen") {
				if err := opts.v.BindPFlag("server.listen_addr", cmd.Flags().Lookup("listen")); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("rate") {
				return opts.v.BindPFlag("server.rate_limit", cmd.Flags().Lookup("rate"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := observability.GetLogger()
			cfg := opts.cfg

			// Re-resolve the server section now that flags are bound.
			if err := opts.v.UnmarshalKey("server", &cfg.Server); err != nil {
				return fmt.Errorf("resolving server flags: %w", err)
			}
			if err := cfg.Server.Validate(); err != nil {
				return fmt.Errorf("server configuration invalid: %w", err)
			}

			eng, err := engine.New(cfg.Scoring)
			if err != nil {
				return fmt.Errorf("binding scoring calibration: %w", err)
			}

			svc := triage.NewService(eng,
				store.NewMemory(logger),
				triage.NewLogBroadcaster(logger),
				nil, logger)

			metrics := observability.NewMetrics(cfg.Server.RuntimeMetrics)
			handlers := server.NewHandlers(eng, svc, metrics, logger)
			srv := server.New(cfg.Server, handlers, metrics, logger)

			logger.Info("Starting triagecore server.",
				zap.String("listen_addr", cfg.Server.ListenAddr),
				zap.Float64("rate_limit", cfg.Server.RateLimit),
				zap.String("calibration", cfg.Scoring.Version))

			return srv.Run(cmd.Context())
		},
	}

	serveCmd.Flags().String("listen", "", "listen address (overrides server.listen_addr)")
	serveCmd.Flags().Float64("rate", 0, "request rate limit per second (overrides server.rate_limit)")
	return serveCmd
}
