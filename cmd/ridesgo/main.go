package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/yaovia/rides-go/docs"
	"github.com/yaovia/rides-go/internal/app"
	"github.com/yaovia/rides-go/internal/config"
)

// @title RidesGo API
// @version 1.0
// @description Seat-booking backend for scheduled trips.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
