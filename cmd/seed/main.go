package main

import (
	"log"

	"github.com/subletme/sublet-api/internal/config"
	"github.com/subletme/sublet-api/internal/db"
)

func main() {
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		log.Fatalf("failed to migrate db: %v", err)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
