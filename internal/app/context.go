package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/cache"
	"github.com/subletme/sublet-api/internal/notify"
)

// AppContext holds shared dependencies (DB, Redis, push dispatcher, logger).
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Pusher     *notify.Dispatcher
	Logger     *slog.Logger
}

// New creates a new AppContext.
func New(db *gorm.DB, rdb *cache.RedisCache, pusher *notify.Dispatcher, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Pusher:     pusher,
		Logger:     logger,
	}
}
