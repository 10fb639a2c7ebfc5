package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/healthbridge/internal/config"
	"github.com/claude/healthbridge/internal/healthstore/pgstore"
	"github.com/claude/healthbridge/internal/seed"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	fixturePath := flag.String("path", "", "fixture file or directory (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *fixturePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: healthbridge-seed -config config.yaml -path fixtures/ [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := pgstore.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Connect database
	store, err := pgstore.New(ctx, dsn, cfg.Bridge.PageSize, log)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("database connected")

	stats, err := seed.New(store, log, *dryRun).Seed(ctx, *fixturePath)
	if err != nil {
		log.Error("seed failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("seed complete")
}

func printStats(log *slog.Logger, stats *seed.Stats) {
	log.Info("seed stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"records_inserted", stats.RecordsInserted,
		"records_duplicate", stats.RecordsDuplicate,
	)
}
