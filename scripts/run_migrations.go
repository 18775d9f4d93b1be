package main

import (
	"context"
	"log"
	"os"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatal("Direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}
	if cfg.LocalStore.Driver != config.DriverSQLite && cfg.LocalStore.Driver != config.DriverPostgres {
		log.Fatalf("LOCAL_STORE_DRIVER %q has no schema to migrate", cfg.LocalStore.Driver)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	applied, err := database.Migrate(context.Background(), db, cfg.Database.Driver, direction)
	if err != nil {
		log.Fatalf("Run migrations: %v", err)
	}
	for _, name := range applied {
		log.Printf("Ran migration: %s", name)
	}

	log.Printf("Successfully ran %d migration(s) %s", len(applied), direction)
}
