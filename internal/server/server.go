// Package server exposes the HTTP API for activity tracking, search, and
// insight endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/thebtf/lifelog/internal/chunker"
	"github.com/thebtf/lifelog/internal/config"
	"github.com/thebtf/lifelog/internal/db/sqlite"
	"github.com/thebtf/lifelog/internal/extract"
	"github.com/thebtf/lifelog/internal/recorder"
	"github.com/thebtf/lifelog/internal/vector"
	"github.com/thebtf/lifelog/pkg/models"
)

// Embedder produces query vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]models.Vector, error)
}

// Answerer generates text from a context and an instruction.
type Answerer interface {
	Answer(ctx context.Context, contextText, instruction string) (string, error)
}

// EventRecorder persists activity events.
type EventRecorder interface {
	Record(ctx context.Context, ev recorder.Event) (*models.ActivityRecord, error)
}

// Service wires the HTTP routes to the stores together with the embedding
// and generative collaborators.
type Service struct {
	config     *config.Config
	activities *sqlite.ActivityStore
	embeddings *sqlite.EmbeddingStore
	index      *vector.Index
	recorder   EventRecorder
	embedder   Embedder
	answerer   Answerer
	extractor  *extract.Extractor
	splitter   *chunker.Splitter
	router     chi.Router
	log        zerolog.Logger
	startTime  time.Time
}

// New creates the service and registers its routes.
func New(
	cfg *config.Config,
	activities *sqlite.ActivityStore,
	embeddings *sqlite.EmbeddingStore,
	index *vector.Index,
	rec EventRecorder,
	embedder Embedder,
	answerer Answerer,
	extractor *extract.Extractor,
	splitter *chunker.Splitter,
	log zerolog.Logger,
) *Service {
	svc := &Service{
		config:     cfg,
		activities: activities,
		embeddings: embeddings,
		index:      index,
		recorder:   rec,
		embedder:   embedder,
		answerer:   answerer,
		extractor:  extractor,
		splitter:   splitter,
		router:     chi.NewRouter(),
		log:        log.With().Str("component", "server").Logger(),
		startTime:  time.Now(),
	}
	svc.setupRoutes()
	return svc
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(corsMiddleware)

	s.router.Get("/", s.handleRoot)
	s.router.Get("/stats", s.handleStats)
	s.router.Post("/track/activity", s.handleTrackActivity)
	s.router.Get("/search", s.handleSearch)
	s.router.Get("/timeline", s.handleTimeline)
	s.router.Get("/files", s.handleFiles)
	s.router.Get("/insights", s.handleInsights)
	s.router.Get("/mindmap", s.handleMindmap)
	s.router.Get("/quiz", s.handleQuiz)
	s.router.Post("/query-file", s.handleQueryFile)
}

// Router returns the configured handler.
func (s *Service) Router() http.Handler {
	return s.router
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
