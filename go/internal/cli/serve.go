package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket game gateway and results API",
		Long: `Serve games over websockets at /ws/game, connection stats at /ws/stats and
recent results over Connect. Finished games go to Postgres and NATS when
those are enabled in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				rootOpts.Config.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv, err := buildServer(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer srv.close()

	if srv.relay != nil {
		if err := srv.relay.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := srv.relay.Stop(); err != nil {
				log.Error().Err(err).Msg("failed to stop outbox relay")
			}
		}()
	}

	if srv.listener != nil {
		go func() {
			if err := srv.listener.Run(ctx, srv.relay.Wake); err != nil {
				log.Error().Err(err).Msg("outbox listener stopped")
			}
		}()
	}

	gwDone := make(chan error, 1)
	go func() { gwDone <- srv.gateway.Start(ctx) }()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.http.Addr).Msg("starting server")
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err = <-errCh:
		log.Error().Err(err).Msg("server exited unexpectedly")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if serr := srv.http.Shutdown(shutdownCtx); serr != nil {
		log.Error().Err(serr).Msg("server shutdown failed")
	}
	<-gwDone
	log.Info().Msg("graceful shutdown complete")
	return err
}
