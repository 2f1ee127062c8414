package main

import (
	"flag"
	"log"

	"tune-guesser/internal/config"
	"tune-guesser/internal/db"
)

func main() {
	filePath := flag.String("file", "tracks.csv", "path to tracks csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	loaded, err := db.LoadTrackLibrary(conn, *filePath)
	if err != nil {
		log.Fatalf("failed to load tracks: %v", err)
	}
	log.Printf("loaded %d tracks", loaded)
}
