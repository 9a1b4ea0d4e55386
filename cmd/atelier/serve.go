package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/api"
	"github.com/fpang/vizu-atelier/internal/cli"
	"github.com/fpang/vizu-atelier/internal/session"
)

const (
	sweepInterval   = 10 * time.Minute
	shutdownTimeout = 30 * time.Second
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the JSON API used by the web front end. Sessions are kept in memory
and expire after the configured TTL. A missing API key does not stop the
server; model-backed endpoints answer 503 until one is configured.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Listen port (overrides config and PORT)")
}

func runServe(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	ctx := cmd.Context()
	cfg := loadConfig()
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}

	svc := cli.InitServiceLenient(cfg)
	store := session.NewStore(cfg.Server.SessionTTL)
	go store.RunSweeper(ctx, sweepInterval)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewServer(svc, store, cfg.APIConfig(version)).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cfg.Startup("atelier-serve", version, initStart).
		Config("addr", srv.Addr).
		Config("session_ttl", cfg.Server.SessionTTL.String()).
		Log()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("addr", srv.Addr).Msg("Server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
