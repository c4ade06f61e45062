package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-importer/internal/api"
	"github.com/insightdelivered/statement-importer/internal/reconcile"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(global *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the statement upload API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var store reconcile.Store
			if cfg.Database.DSN != "" {
				pg, err := reconcile.OpenPostgres(ctx, cfg.Database.DSN)
				if err != nil {
					return err
				}
				defer pg.Close()
				if err := pg.Migrate(ctx); err != nil {
					return err
				}
				store = pg
			} else {
				logger.Warn("no database configured, imports are kept in memory")
				store = reconcile.NewMemoryStore()
			}

			h := &api.Handler{
				Parser:       newParser(cfg, logger),
				Reconciler:   reconcile.New(store, logger, cfg.Import.DefaultCategory),
				Logger:       logger,
				PreviewLimit: cfg.Server.PreviewLimit,
				UploadDir:    cfg.Server.UploadDir,
			}
			app := api.NewApp(h, cfg.MaxUploadBytes())

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Server.Addr)
				errc <- app.Listen(cfg.Server.Addr)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
