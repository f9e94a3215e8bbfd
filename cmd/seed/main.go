package main

import (
	"context"
	"os"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/seed"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}
	if cfg.IsProduction() {
		middleware.Logger.Error("Refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("Failed to connect to database", "error", err.Error())
		os.Exit(1)
	}

	if err := seed.Run(context.Background(), db); err != nil {
		middleware.Logger.Error("Seeding failed", "error", err.Error())
		os.Exit(1)
	}
}
