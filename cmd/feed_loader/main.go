package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/threatwatch-io/threatwatch/internal/adapters/feedstore"
)

func main() {
	seedFile := flag.String("seed-file", "./configs/threat_seed.json", "Path to threat seed JSON file")
	dbPath := flag.String("db-path", "./data/threats.db", "Path to threat database")
	feedName := flag.String("feed", "", "Feed name recorded for entries without one")
	flag.Parse()

	log.Println("=== Threat Feed Loader ===")
	log.Printf("Seed file: %s", *seedFile)
	log.Printf("Database: %s", *dbPath)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Create repository
	repo, err := feedstore.NewSQLiteRepository(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	// Load seed data
	loader := feedstore.NewSeedLoader(repo)
	ctx := context.Background()

	if err := loader.LoadFromFile(ctx, *seedFile, *feedName); err != nil {
		log.Fatalf("Failed to load seed data: %v", err)
	}

	// Show stats
	count, _ := repo.GetTotalCount(ctx)
	log.Printf("✓ Database now contains %d threat records", count)
}
