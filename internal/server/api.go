package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/desertthunder/storysounds/internal/tasks"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pipeline is the part of [tasks.PlaylistEngine] the API drives.
type Pipeline interface {
	Run(ctx context.Context, text string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
	Transcribe(ctx context.Context, filename string, audio io.Reader, progress chan<- tasks.ProgressUpdate) (string, error)
}

// RunReader reads playlist history.
type RunReader interface {
	List(ctx context.Context, limit, offset int) ([]*models.PlaylistRun, error)
	Count(ctx context.Context) (int, error)
	Find(ctx context.Context, ref string) (*models.PlaylistRun, error)
}

// FeedbackStore persists feedback.
type FeedbackStore interface {
	Create(ctx context.Context, fb *models.Feedback) error
}

// API serves the JSON endpoints. Any dependency may be nil; its routes then answer 503.
type API struct {
	pipeline  Pipeline
	runs      RunReader
	feedback  FeedbackStore
	maxUpload int64
	logger    *log.Logger
}

// NewAPI creates the API handlers. maxUploadMB bounds transcription uploads.
func NewAPI(pipeline Pipeline, runs RunReader, feedback FeedbackStore, maxUploadMB int, logger *log.Logger) *API {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &API{
		pipeline:  pipeline,
		runs:      runs,
		feedback:  feedback,
		maxUpload: int64(maxUploadMB) << 20,
		logger:    shared.WithLogger(logger, "component", "api"),
	}
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodPost, "/api/recommend", http.HandlerFunc(a.recommend))
	r.Handle(http.MethodPost, "/api/transcribe", http.HandlerFunc(a.transcribe))
	r.Handle(http.MethodPost, "/api/feedback", http.HandlerFunc(a.submitFeedback))
	r.Handle(http.MethodGet, "/api/playlists", http.HandlerFunc(a.listPlaylists))
	r.Handle(http.MethodGet, "/api/playlists/{id}", http.HandlerFunc(a.getPlaylist))
}

type recommendRequest struct {
	Text          string `json:"text"`
	Transcription string `json:"transcription"`
}

func (a *API) recommend(w http.ResponseWriter, r *http.Request) {
	if a.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "recommendation pipeline is not configured")
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = strings.TrimSpace(req.Transcription)
	}
	if err := validate.Var(text, "required"); err != nil {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	a.runPipeline(w, r, text)
}

func (a *API) runPipeline(w http.ResponseWriter, r *http.Request, text string) {
	result, err := a.pipeline.Run(r.Context(), text, nil)
	if err != nil {
		a.fail(w, r, "pipeline run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result.Response)
}

func (a *API) transcribe(w http.ResponseWriter, r *http.Request) {
	if a.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if err := r.ParseMultipartForm(min(a.maxUpload, 32<<20)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	text, err := a.pipeline.Transcribe(r.Context(), header.Filename, file, nil)
	if err != nil {
		a.fail(w, r, "transcription failed", err)
		return
	}

	if ok, _ := strconv.ParseBool(r.URL.Query().Get("recommend")); ok {
		a.runPipeline(w, r, text)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (a *API) submitFeedback(w http.ResponseWriter, r *http.Request) {
	if a.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback storage is not configured")
		return
	}

	var fb models.Feedback
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	fb.ID, fb.Sequence, fb.Source = "", 0, "web"

	if err := a.feedback.Create(r.Context(), &fb); err != nil {
		if errors.Is(err, shared.ErrEmptyFeedback) {
			writeError(w, http.StatusBadRequest, "Feedback message is required")
			return
		}
		a.fail(w, r, "feedback not saved", err)
		return
	}

	a.logger.Info("feedback received", "id", fb.ID, "has_email", fb.Email != "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Feedback received", "id": fb.ID})
}

type playlistPage struct {
	Playlists []*models.PlaylistRun `json:"playlists"`
	Total     int                   `json:"total"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist history is not configured")
		return
	}

	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit = min(limit, maxPageSize)

	runs, err := a.runs.List(r.Context(), limit, offset)
	if err != nil {
		a.fail(w, r, "list playlists failed", err)
		return
	}
	total, err := a.runs.Count(r.Context())
	if err != nil {
		a.fail(w, r, "count playlists failed", err)
		return
	}

	writeJSON(w, http.StatusOK, playlistPage{Playlists: runs, Total: total, Limit: limit, Offset: offset})
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist history is not configured")
		return
	}

	run, err := a.runs.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, r, "get playlist failed", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	kv := []any{"path", r.URL.Path, "status", status, "err", err, "request_id", RequestIDFrom(r.Context())}
	if status >= 500 {
		a.logger.Error(msg, kv...)
	} else {
		a.logger.Warn(msg, kv...)
	}
	writeError(w, status, errorMessage(status, err))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// HealthHandler reports liveness and which providers are configured.
type HealthHandler struct {
	started  time.Time
	services map[string]bool
}

func NewHealthHandler(services map[string]bool) *HealthHandler {
	return &HealthHandler{started: time.Now(), services: services}
}

func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"services": h.services,
	})
}

// NewHandler assembles the router with the standard middleware chain and every route.
func NewHandler(cfg shared.ServerConfig, api *API, health *HealthHandler, logger *log.Logger) http.Handler {
	r := NewBasicRouter()
	r.Use(
		RequestID(),
		Recover(logger),
		Logging(logger),
		CORS(cfg.AllowedOrigins),
		RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow),
		Metrics(),
	)

	r.Handler(health)
	r.Handle(http.MethodGet, "/metrics", metrics.Handler())
	api.Register(r)
	return r
}
