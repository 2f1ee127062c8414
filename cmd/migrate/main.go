package main

import (
	"errors"
	"flag"
	"log"

	"tune-guesser/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	dir := flag.String("dir", "db/migrations", "migrations directory")
	down := flag.Bool("down", false, "roll back instead of applying")
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back; 0 means all")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migration setup failed: %v", err)
	}
	defer m.Close()

	switch {
	case *steps != 0 && *down:
		err = m.Steps(-*steps)
	case *steps != 0:
		err = m.Steps(*steps)
	case *down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("database migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("read migration version: %v", err)
	}
	log.Printf("database migrations applied version=%d dirty=%t", version, dirty)
}
