package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := flag.String("name", "", "migration name, e.g. add_track_tags")
	dir := flag.String("dir", "db/migrations", "migrations directory")
	flag.Parse()

	slug := strings.ToLower(strings.TrimSpace(*name))
	slug = strings.ReplaceAll(slug, "-", "_")
	if slug == "" {
		log.Fatal("migration name is required")
	}
	if !migrationName.MatchString(slug) {
		log.Fatal("migration name may only contain letters, digits and underscores")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, slug)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}
	if err := writeFile(upPath, fmt.Sprintf("-- %s: apply\nBEGIN;\n\nCOMMIT;\n", slug)); err != nil {
		log.Fatalf("create up migration: %v", err)
	}
	if err := writeFile(downPath, fmt.Sprintf("-- %s: revert\nBEGIN;\n\nCOMMIT;\n", slug)); err != nil {
		log.Fatalf("create down migration: %v", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
}

func writeFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("file already exists: %s", path)
		}
		return err
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
