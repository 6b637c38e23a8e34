// Package main provides the lifelog daemon: watchers, enrichment pipeline,
// and the HTTP API in one process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/lifelog/internal/chunker"
	"github.com/thebtf/lifelog/internal/config"
	"github.com/thebtf/lifelog/internal/db/sqlite"
	"github.com/thebtf/lifelog/internal/embed"
	"github.com/thebtf/lifelog/internal/extract"
	"github.com/thebtf/lifelog/internal/genai"
	"github.com/thebtf/lifelog/internal/pipeline"
	"github.com/thebtf/lifelog/internal/recorder"
	"github.com/thebtf/lifelog/internal/server"
	"github.com/thebtf/lifelog/internal/vector"
	"github.com/thebtf/lifelog/internal/watch"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP listen port (default: from settings)")
	monitoredDir := flag.String("dir", "", "Directory to watch for file changes (default: from settings)")
	noWatch := flag.Bool("no-watch", false, "Disable desktop watchers, serve API only")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *monitoredDir != "" {
		cfg.MonitoredDir = *monitoredDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		cancel()
	}()

	store, err := sqlite.NewStore(sqlite.StoreConfig{
		Path:     config.DBPath(),
		MaxConns: cfg.MaxConns,
		WALMode:  true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SQLite store")
	}
	defer store.Close()

	activities := sqlite.NewActivityStore(store)
	embeddings := sqlite.NewEmbeddingStore(store)

	index, err := vector.Open(config.IndexPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open vector index")
	}
	defer index.Close()

	// An empty index alongside a populated store means the cache file was
	// lost. Rebuild it from the durable embeddings.
	if index.Count() == 0 {
		if stored, err := embeddings.Count(ctx); err == nil && stored > 0 {
			log.Info().Int64("embeddings", stored).Msg("Rebuilding vector index")
			all, err := embeddings.GetAll(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load embeddings for rebuild")
			}
			if err := index.Rebuild(ctx, all); err != nil {
				log.Fatal().Err(err).Msg("Failed to rebuild vector index")
			}
		}
	}

	apiKey := config.APIKey()
	embedder := embed.NewClient(cfg.EmbedBaseURL, apiKey, cfg.EmbedModel, cfg.ClientTimeout())
	answerer := genai.NewClient(cfg.EmbedBaseURL, apiKey, cfg.ChatModel, cfg.ClientTimeout())
	transcriber := extract.NewHTTPTranscriber(cfg.EmbedBaseURL, apiKey, "", cfg.ClientTimeout())
	extractor := extract.New(transcriber)
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	pipe := pipeline.New(extractor, splitter, embedder, embeddings, index, log.Logger)
	rec := recorder.New(activities, pipe, log.Logger)
	rec.Start(ctx, 2)
	defer rec.Close()

	svc := server.New(cfg, activities, embeddings, index, rec, embedder, answerer, extractor, splitter, log.Logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if !*noWatch {
		fileWatcher, err := watch.NewFileWatcher(cfg.MonitoredDir, rec, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.MonitoredDir).Msg("Failed to start file watcher")
		}
		g.Go(func() error { return fileWatcher.Run(gctx) })

		windowWatcher := watch.NewWindowWatcher(watch.NewInspector(), rec, cfg.PollInterval(), log.Logger)
		g.Go(func() error { return windowWatcher.Run(gctx) })
	}

	g.Go(func() error {
		log.Info().Int("port", cfg.Port).Str("version", Version).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Daemon exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
