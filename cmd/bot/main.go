package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/anon_chat/internal/config"
	"github.com/mroshb/anon_chat/internal/database"
	"github.com/mroshb/anon_chat/internal/metrics"
	"github.com/mroshb/anon_chat/internal/services"
	"github.com/mroshb/anon_chat/pkg/logger"
	"github.com/mroshb/anon_chat/telegram"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	logger.Info("Starting anonymous chat bot...")

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	defaults := services.NewSettings(nil, cfg.InactivitySeconds, cfg.AntiRepeatRounds).Defaults()
	if err := database.SeedSettings(db, defaults); err != nil {
		logger.Warn("Failed to seed settings", "error", err)
	}

	// Sessions left open by a crash long ago are closed before the bot
	// starts serving; recent ones are recovered lazily.
	if maxAge := cfg.GetStaleSessionAge(); maxAge > 0 {
		closed, err := database.CloseStaleSessions(db, maxAge)
		if err != nil {
			logger.Warn("Failed to close stale sessions", "error", err)
		} else if closed > 0 {
			logger.Info("Closed stale sessions", "count", closed)
		}
	}

	bot, err := telegram.InitBot(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		logger.Info("Metrics server listening", "addr", cfg.MetricsAddr)
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	bot.Stop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown failed", "error", err)
		}
		cancel()
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Bot stopped")
}
