// Package main provides the lifelog-prune utility: it deletes activity
// records (and their embeddings, via cascade) older than the current day.
// Intended to run from cron or a systemd timer.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/lifelog/internal/config"
	"github.com/thebtf/lifelog/internal/db/sqlite"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report what would be deleted without deleting")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		cfg = config.Default()
	}

	store, err := sqlite.NewStore(sqlite.StoreConfig{
		Path:     config.DBPath(),
		MaxConns: cfg.MaxConns,
		WALMode:  true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := midnight.UnixMilli()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	activities := sqlite.NewActivityStore(store)

	if *dryRun {
		old, err := activities.GetBetween(ctx, 0, cutoff)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to count old records")
		}
		log.Info().Int("records", len(old)).Time("cutoff", midnight).Msg("Would delete")
		return
	}

	deleted, err := activities.DeleteBefore(ctx, cutoff)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to delete old records")
	}
	log.Info().Int64("deleted", deleted).Time("cutoff", midnight).Msg("Prune complete")
}
