// Command migrate applies the embedded schema migrations to DATABASE_URL.
package main

import (
	"errors"
	"flag"
	"log"

	"servicos-ja/backend/internal/config"
	"servicos-ja/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	switch err := migrate.Run(cfg.DatabaseURL, *direction); {
	case err == nil:
		log.Printf("migrations applied (%s)", *direction)
	case errors.Is(err, migrate.ErrNoChange):
		log.Print("schema already up to date")
	default:
		log.Fatalf("migrate: %v", err)
	}
}
