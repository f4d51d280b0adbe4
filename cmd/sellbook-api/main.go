package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/sellbook/sellbook/docs"
	"github.com/sellbook/sellbook/internal/app"
	"github.com/sellbook/sellbook/internal/config"
)

//go:generate swag init -d ../.. -g cmd/sellbook-api/main.go -o ../../docs

// @title Sellbook API
// @version 1.0
// @description Back office API for a travel ticket resale business.
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

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
