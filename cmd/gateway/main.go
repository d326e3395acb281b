package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contractcreator/internal/gateway/app"
	"contractcreator/internal/logging"
)

func main() {
	logger := logging.New("main")
	defer func() { _ = logger.Sync() }()

	a, err := app.New(context.Background(), os.Args[1:])
	if err != nil {
		logger.Fatalf("Failed to initialize app: %v", err)
	}

	go func() {
		if err := a.Start(); err != nil {
			logger.Errorf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
}
