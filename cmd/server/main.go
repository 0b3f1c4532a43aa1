package main

import (
	"context"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/cache"
	"github.com/subletme/sublet-api/internal/config"
	"github.com/subletme/sublet-api/internal/db"
	"github.com/subletme/sublet-api/internal/logger"
	"github.com/subletme/sublet-api/internal/notify"
	"github.com/subletme/sublet-api/internal/server"
	"github.com/subletme/sublet-api/internal/service/auth"
	"github.com/subletme/sublet-api/internal/service/conversation"
	"github.com/subletme/sublet-api/internal/service/property"
	"github.com/subletme/sublet-api/internal/service/swipe"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}
	if err := db.Migrate(database); err != nil {
		log.Error("failed to migrate db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Push notifications are optional: without Firebase credentials every
	// dispatch is a logged no-op.
	var notifier notify.Notifier = notify.Discard{}
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := notify.NewFCMNotifier(context.Background(), cfg)
		if err != nil {
			log.Error("failed to init firebase messaging", "err", err)
			return
		}
		notifier = fcm
	} else {
		log.Warn("firebase credentials not set, push notifications disabled")
	}
	pusher := notify.NewDispatcher(database, notifier, log)

	appCtx := app.New(database, redisCache, pusher, log)

	authRegistrar := auth.NewRegistrar(appCtx, cfg)
	registrars := []server.Registrar{
		authRegistrar,
		swipe.NewRegistrar(appCtx),
		conversation.NewRegistrar(appCtx),
		property.NewRegistrar(appCtx),
	}

	if cfg.App.Env == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, authRegistrar.Service(), registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
