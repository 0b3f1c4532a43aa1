package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/subletme/sublet-api/internal/config"
)

// NewDB initializes the database connection using DSN from config.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate keeps the schema in sync with the models. Shared with the test
// helpers, which run it against in-memory SQLite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&UserPhoto{},
		&UserDevice{},
		&Property{},
		&PropertySwipe{},
		&PropertySwipeHistory{},
		&HostSubletterSwipe{},
		&Conversation{},
		&Message{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
