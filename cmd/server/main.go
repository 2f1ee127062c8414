package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tune-guesser/internal/catalog"
	"tune-guesser/internal/config"
	"tune-guesser/internal/db"
	"tune-guesser/internal/server"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var conn *gorm.DB
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := db.ConfigurePool(conn, cfg); err != nil {
			log.Fatalf("database pool setup failed: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
	} else {
		log.Printf("DATABASE_URL is not set; game history is disabled")
	}

	providers := []catalog.Provider{catalog.NewDeezer(cfg.DeezerBaseURL, cfg.CatalogTimeout())}
	if conn != nil {
		providers = append(providers, catalog.NewLibrary(conn))
	}
	provider := catalog.NewFallback(providers...)
	srv := server.New(conn, provider, cfg)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("tune-guesser server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown failed: %v", err)
	}
	srv.Close()
	log.Println("server stopped")
}
