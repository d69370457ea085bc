package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/trading-council/internal/config"
	"github.com/aristath/trading-council/internal/di"
	"github.com/aristath/trading-council/internal/server"
	"github.com/aristath/trading-council/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	logger.SetGlobalLogger(log)

	log.Info().Msg("starting trading council")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire container")
	}
	defer container.Close()

	if err := container.RegisterJobs(cfg, cfg.UniverseSymbols, log); err != nil {
		log.Fatal().Err(err).Msg("failed to register jobs")
	}

	if restored, err := container.Pipeline.RestoreOnStartup(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to restore pending signals")
	} else if restored > 0 {
		log.Info().Int("count", restored).Msg("restored pending signals from prior run")
	}

	container.Scheduler.Start()
	defer container.Scheduler.Stop()

	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Signals:  container.Signals,
		Pipeline: container.Pipeline,
		Meetings: container.Orchestrator.Registry(),
		Jobs:     container.Jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
