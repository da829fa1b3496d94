package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/techinsight/techinsight-be/internal/api"
	"github.com/techinsight/techinsight-be/internal/clock"
	"github.com/techinsight/techinsight-be/internal/config"
	"github.com/techinsight/techinsight-be/internal/logger"
	"github.com/techinsight/techinsight-be/internal/monitoring"
	"github.com/techinsight/techinsight-be/internal/services"
	"github.com/techinsight/techinsight-be/internal/storage"
	"github.com/techinsight/techinsight-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.IsDevelopment())

	// Set up storage
	store, err := storage.Open(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialize storage")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	clk := clock.NewReal()
	accountService := services.NewAccountService(store, cfg.BcryptCost, clk)
	postService := services.NewPostService(store, clk, hub)

	// Set up and run the background store monitor
	monitor, err := monitoring.NewStoreMonitor(store, hub, websocket.GlobalTopic, cfg.HealthSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store monitor")
	}
	monitor.Start()

	// Set up router
	router := api.NewRouter(api.Options{
		Accounts:       accountService,
		Posts:          postService,
		Store:          store,
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	monitor.Stop() // Stop the health monitor

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop() // Close activity streams

	if err := store.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to close storage")
	}

	log.Info().Msg("Server exiting")
}
