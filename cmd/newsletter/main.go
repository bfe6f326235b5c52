// Package main Newsletter API
//
// @title           Newsletter API
// @version         1.0
// @description     Подписка на рассылку, подтверждение адреса и публикация выпусков.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.basic BasicAuth

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/newsletter/internal/app/newsletter"
	"github.com/magabrotheeeer/newsletter/internal/config"
	"github.com/magabrotheeeer/newsletter/internal/lib/logger"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)

	log.Info("starting newsletter", slog.String("env", cfg.Env))
	log.Debug("loaded config", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newsletter.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Chain(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("newsletter stopped gracefully")
}
