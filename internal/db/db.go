package db

import (
	"errors"
	"log"
	"os"
	"time"

	"tune-guesser/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres. An empty dsn falls back to DATABASE_URL.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// ConfigurePool applies the connection pool limits from cfg.
func ConfigurePool(conn *gorm.DB, cfg config.Config) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
	return nil
}

// Migrate runs GORM auto-migrations for the core tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&Game{},
		&Player{},
		&Event{},
		&TrackLibrary{},
	); err != nil {
		return err
	}
	log.Println("database migration complete")
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
