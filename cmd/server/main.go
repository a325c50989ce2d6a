package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/app"
	"github.com/dataspace-connector/connector/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := zerolog.New(os.Stdout).Level(cfg.Level()).With().Timestamp().Logger()

	ctx := context.Background()
	repos, err := app.OpenRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("storage unavailable")
	}

	connector, err := app.New(ctx, cfg, repos, logger)
	if err != nil {
		repos.Close()
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer connector.Close()

	if cfg.AdminTokenHash == "" {
		logger.Warn().Msg("ADMIN_TOKEN_HASH is not set, management API is open")
	}
	if rule := connector.Admission.Rule(); rule != "" {
		logger.Info().Str("rule", rule).Msg("admission rule active")
	}

	// no WriteTimeout: event streams are long-lived
	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           connector.Server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("store", cfg.Store).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	// closing the hub ends open event streams so Shutdown can drain
	connector.Hub.Stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
}
