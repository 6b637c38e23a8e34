package server

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/thebtf/lifelog/internal/aggregate"
	"github.com/thebtf/lifelog/internal/embed"
	"github.com/thebtf/lifelog/internal/extract"
	"github.com/thebtf/lifelog/internal/genai"
	"github.com/thebtf/lifelog/internal/mindmap"
	"github.com/thebtf/lifelog/internal/recorder"
	"github.com/thebtf/lifelog/pkg/models"
)

const (
	defaultQuizQuestions = 5
	maxQuizQuestions     = 20

	// quizContextChars bounds how much chunk text goes into the quiz prompt.
	quizContextChars = 8000
)

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "lifelog",
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
	})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	activityCount, err := s.activities.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to count activities")
		return
	}
	embeddingCount, err := s.embeddings.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to count embeddings")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activityCount,
		"embeddings": embeddingCount,
		"index":      s.index.Metrics().Snapshot(),
	})
}

type trackRequest struct {
	Type        string `json:"type"`
	AppName     string `json:"app_name"`
	WindowTitle string `json:"window_title"`
	URL         string `json:"url"`
	FilePath    string `json:"file_path"`
}

func (s *Service) handleTrackActivity(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var ev recorder.Event
	switch models.ActivityKind(req.Type) {
	case models.KindWindowFocus:
		ev = recorder.WindowFocusEvent{App: req.AppName, Title: req.WindowTitle, URL: req.URL}
	case models.KindFileEdit:
		ev = recorder.FileEditEvent{Path: req.FilePath}
	default:
		s.writeError(w, http.StatusBadRequest, "unknown activity type: "+req.Type)
		return
	}

	rec, err := s.recorder.Record(r.Context(), ev)
	if err != nil {
		if errors.Is(err, recorder.ErrInvalidEvent) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("failed to record activity")
		s.writeError(w, http.StatusInternalServerError, "failed to record activity")
		return
	}

	s.writeJSON(w, http.StatusCreated, rec)
}

type searchResult struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	ActivityID int64   `json:"activity_id"`
	SourceType string  `json:"source_type"`
	CreatedAt  string  `json:"created_at"`
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	topK := s.config.TopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	vectors, err := s.embedder.Embed(r.Context(), []string{query})
	if err != nil {
		if errors.Is(err, embed.ErrUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, "embedding service unavailable")
			return
		}
		s.log.Error().Err(err).Msg("failed to embed query")
		s.writeError(w, http.StatusInternalServerError, "failed to embed query")
		return
	}

	matches := s.index.Query(vectors[0], topK)
	results := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		rec, err := s.embeddings.GetByID(r.Context(), m.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("id", m.ID).Msg("failed to load matched chunk")
			continue
		}
		if rec == nil {
			continue // index ahead of store, stale entry
		}
		results = append(results, searchResult{
			ID:         rec.ID,
			Text:       rec.Text,
			Score:      m.Score,
			ActivityID: rec.ActivityID,
			SourceType: string(rec.SourceType),
			CreatedAt:  rec.CreatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

func (s *Service) handleTimeline(w http.ResponseWriter, r *http.Request) {
	records, err := s.activities.GetToday(r.Context(), time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load today's activity")
		s.writeError(w, http.StatusInternalServerError, "failed to load timeline")
		return
	}
	s.writeJSON(w, http.StatusOK, aggregate.BuildTimeline(records))
}

type fileEntry struct {
	ID        int64  `json:"id"`
	FilePath  string `json:"file_path"`
	CreatedAt string `json:"created_at"`
}

func (s *Service) handleFiles(w http.ResponseWriter, r *http.Request) {
	records, err := s.activities.GetTodayByKind(r.Context(), time.Now(), models.KindFileEdit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load file activity")
		s.writeError(w, http.StatusInternalServerError, "failed to load files")
		return
	}

	files := make([]fileEntry, 0, len(records))
	for _, rec := range records {
		files = append(files, fileEntry{
			ID:        rec.ID,
			FilePath:  rec.FilePath.String,
			CreatedAt: rec.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Service) handleInsights(w http.ResponseWriter, r *http.Request) {
	records, err := s.activities.GetToday(r.Context(), time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load today's activity")
		s.writeError(w, http.StatusInternalServerError, "failed to load insights")
		return
	}

	tl := aggregate.BuildTimeline(records)
	resp := map[string]interface{}{
		"focus_score":   tl.FocusScore,
		"total_events":  tl.TotalEvents,
		"top_apps":      tl.TopApps,
		"hours":         tl.Hours,
		"forecast_next": aggregate.ForecastNextHour(tl),
	}

	// The narrative summary is best-effort: aggregates stand on their own
	// when the model is unreachable.
	if summary, err := s.answerer.Answer(r.Context(), describeTimeline(tl),
		"Summarize this person's day of computer activity in two or three sentences. "+
			"Mention their focus level and most used applications."); err != nil {
		s.log.Warn().Err(err).Msg("insight summary unavailable")
	} else {
		resp["summary"] = summary
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func describeTimeline(tl aggregate.Timeline) string {
	var b strings.Builder
	b.WriteString("Focus score: " + strconv.Itoa(tl.FocusScore) + "/100\n")
	b.WriteString("Total events: " + strconv.Itoa(tl.TotalEvents) + "\n")
	for _, app := range tl.TopApps {
		b.WriteString("App " + app.App + ": " + strconv.Itoa(app.Count) + " events\n")
	}
	for _, h := range tl.Hours {
		b.WriteString("Hour " + strconv.Itoa(h.Hour) + ": " +
			strconv.Itoa(h.Count) + " events, " +
			strconv.Itoa(h.Switches) + " app switches, apps " +
			strings.Join(h.Apps, ", ") + "\n")
	}
	return b.String()
}

func (s *Service) handleMindmap(w http.ResponseWriter, r *http.Request) {
	records, err := s.embeddings.GetAll(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load embeddings")
		s.writeError(w, http.StatusInternalServerError, "failed to build mindmap")
		return
	}
	s.writeJSON(w, http.StatusOK, mindmap.Build(records, s.config.SimilarityThreshold))
}

// QuizQuestion is one multiple-choice question generated from indexed
// content.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

func (s *Service) handleQuiz(w http.ResponseWriter, r *http.Request) {
	count := defaultQuizQuestions
	if raw := r.URL.Query().Get("num_mcqs"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "num_mcqs must be a positive integer")
			return
		}
		count = n
	}
	if count > maxQuizQuestions {
		count = maxQuizQuestions
	}

	records, err := s.embeddings.GetAll(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load embeddings")
		s.writeError(w, http.StatusInternalServerError, "failed to build quiz")
		return
	}
	if len(records) == 0 {
		s.writeError(w, http.StatusNotFound, "no indexed content to quiz on")
		return
	}

	contextText := quizContext(records)
	instruction := "Generate exactly " + strconv.Itoa(count) + " multiple-choice questions " +
		"about the following content. Respond with only a JSON array where each element has " +
		`"question" (string), "options" (array of 4 strings), and "answer" (one of the options). ` +
		"No prose, no markdown fences."

	raw, err := s.answerer.Answer(r.Context(), contextText, instruction)
	if err != nil {
		if errors.Is(err, genai.ErrUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, "generative service unavailable")
			return
		}
		s.log.Error().Err(err).Msg("quiz generation failed")
		s.writeError(w, http.StatusBadGateway, "quiz generation failed")
		return
	}

	var questions []QuizQuestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &questions); err != nil {
		s.log.Warn().Err(err).Msg("quiz response was not valid JSON")
		s.writeError(w, http.StatusBadGateway, "generative model returned malformed quiz")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

// quizContext joins the most recent chunks up to the prompt size cap.
func quizContext(records []*models.EmbeddingRecord) string {
	var b strings.Builder
	for i := len(records) - 1; i >= 0; i-- {
		if b.Len()+len(records[i].Text) > quizContextChars {
			break
		}
		b.WriteString(records[i].Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type queryFileRequest struct {
	FilePath string `json:"file_path"`
	Question string `json:"question"`
}

func (s *Service) handleQueryFile(w http.ResponseWriter, r *http.Request) {
	var req queryFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FilePath) == "" || strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, "file_path and question are required")
		return
	}

	res, err := s.extractor.Extract(r.Context(), req.FilePath)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.writeError(w, http.StatusNotFound, "file not found")
		case errors.Is(err, extract.ErrUnsupportedFormat):
			s.writeError(w, http.StatusUnsupportedMediaType, "unsupported file format")
		case errors.Is(err, extract.ErrEmptyContent):
			s.writeError(w, http.StatusUnprocessableEntity, "file has no extractable text")
		default:
			s.log.Error().Err(err).Str("file_path", req.FilePath).Msg("extraction failed")
			s.writeError(w, http.StatusInternalServerError, "failed to read file")
		}
		return
	}

	answer, err := s.answerer.Answer(r.Context(), res.Text,
		"Answer the following question using only the provided document. "+
			"If the document does not contain the answer, say so.\n\nQuestion: "+req.Question)
	if err != nil {
		if errors.Is(err, genai.ErrUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, "generative service unavailable")
			return
		}
		s.log.Error().Err(err).Msg("file query failed")
		s.writeError(w, http.StatusBadGateway, "failed to answer question")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"file_path": req.FilePath,
		"answer":    answer,
	})
}
