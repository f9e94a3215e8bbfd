package main

import (
	"os"
	"os/signal"
	"syscall"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		middleware.Logger.Error("Failed to initialize server", "error", err.Error())
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(); err != nil {
			middleware.Logger.Error("Server stopped", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	middleware.Logger.Info("Shutting down server")
	if err := srv.Shutdown(); err != nil {
		middleware.Logger.Error("Graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	middleware.Logger.Info("Server stopped")
}
