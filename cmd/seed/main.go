// Command main runs the document store seeder for Inkwell.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
	"inkwell/internal/store/gormstore"
)

func main() {
	// Parse command line flags
	numWriters := flag.Int("writers", 20, "Number of writers to create")
	perWriter := flag.Int("writings", 5, "Number of writings per writer")
	flag.Parse()

	log.Println("Inkwell Seeder")
	log.Printf("Target: %d writers, %d writings each\n", *numWriters, *perWriter)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Publish change notifications so a running server picks the seed up live
	cache.InitRedis(cfg.RedisURL)
	var notifier *gormstore.Notifier
	if rdb := cache.GetClient(); rdb != nil {
		notifier = gormstore.NewNotifier(rdb)
	}

	st, err := gormstore.New(db, notifier)
	if err != nil {
		log.Fatalf("Failed to initialize document store: %v", err)
	}

	if err := seed.Seed(context.Background(), st, seed.Options{
		NumWriters:        *numWriters,
		WritingsPerWriter: *perWriter,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! The store is now populated with demo writers.")
}
