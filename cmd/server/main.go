package main

import (
	"context"

	"github.com/okanb/health-tracker/internal/app"
	"github.com/okanb/health-tracker/internal/cache"
	"github.com/okanb/health-tracker/internal/config"
	"github.com/okanb/health-tracker/internal/db"
	"github.com/okanb/health-tracker/internal/logger"
	"github.com/okanb/health-tracker/internal/server"
	"github.com/okanb/health-tracker/internal/service/tracker"
)

func main() {
	cfg := config.New()

	log := logger.FromAppConfig(cfg)

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log)

	registrars := []server.Registrar{
		tracker.NewRegistrar(appCtx),
	}

	if cfg.App.Env == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
