package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	messagingmodels "leadmsg/backend/messaging/models"
	"leadmsg/backend/pkg/config"
	"leadmsg/backend/pkg/di"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/router"
	usermodels "leadmsg/backend/user/models"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Get()

	appLogger := logger.New(logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format == "json",
	})
	logger.SetGlobal(appLogger)

	db, err := config.NewDB()
	if err != nil {
		appLogger.Error("failed to connect to database", "error", err.Error())
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&usermodels.User{},
		&messagingmodels.Conversation{},
		&messagingmodels.Participant{},
		&messagingmodels.Message{},
		&messagingmodels.Attachment{},
	); err != nil {
		appLogger.Error("failed to migrate database", "error", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()
	container, err := di.New(ctx, db, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to build dependencies", "error", err.Error())
		os.Exit(1)
	}

	engine := router.New(container)
	srv := router.Server(engine, cfg)

	go func() {
		appLogger.Info("server starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", "error", err.Error())
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("server stopped")
}
