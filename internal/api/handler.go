package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rajasatyajit/TravelAdvisor/internal/cache"
	"github.com/rajasatyajit/TravelAdvisor/internal/insights"
	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	middlewares "github.com/rajasatyajit/TravelAdvisor/internal/middleware"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
	"github.com/rajasatyajit/TravelAdvisor/internal/normalizer"
	"github.com/rajasatyajit/TravelAdvisor/internal/store"
)

// PipelineRunner triggers an ingestion run and returns its run ID.
type PipelineRunner interface {
	RunOnce(ctx context.Context) (string, error)
}

// Handler handles HTTP requests for the API
type Handler struct {
	store        store.Store
	analyzer     *insights.Analyzer
	normalizer   *normalizer.Normalizer
	cache        *cache.InsightCache
	pipeline     PipelineRunner
	lookbackDays int
	version      string
	buildTime    string
	gitCommit    string
	startTime    time.Time
	adminSecret  string
}

// NewHandler creates a new API handler
func NewHandler(
	st store.Store,
	analyzer *insights.Analyzer,
	norm *normalizer.Normalizer,
	insightCache *cache.InsightCache,
	pipeline PipelineRunner,
	lookbackDays int,
	adminSecret, version, buildTime, gitCommit string,
) *Handler {
	return &Handler{
		store:        st,
		analyzer:     analyzer,
		normalizer:   norm,
		cache:        insightCache,
		pipeline:     pipeline,
		lookbackDays: lookbackDays,
		version:      version,
		buildTime:    buildTime,
		gitCommit:    gitCommit,
		startTime:    time.Now(),
		adminSecret:  adminSecret,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {
		// Health check endpoints
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)

		// Advisory endpoints
		r.Get("/advisories", h.getAdvisoriesHandler)
		r.Get("/advisories/{id}", h.getAdvisoryHandler)

		// Insight endpoints
		r.Get("/countries/{country}/insight", h.getCountryInsightHandler)
		r.Get("/risk/by-country", h.getGlobalRiskHandler)
		r.Get("/keywords", h.getKeywordsHandler)

		// System info
		r.Get("/version", h.versionHandler)
	})

	// Admin routes (protected by shared secret middleware)
	r.Route("/v1/admin", func(r chi.Router) {
		r.With(middlewares.AdminSecret(h.adminSecret)).Group(func(r chi.Router) {
			r.Post("/pipeline/run", h.adminRunPipeline)
		})
	})

	// Root health check
	r.Get("/health", h.healthHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{
		"store": "ok",
	}

	statusCode := http.StatusOK

	if err := h.store.Health(ctx); err != nil {
		checks["store"] = "error: " + err.Error()
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	}

	h.writeJSONResponse(w, statusCode, response)
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// getAdvisoriesHandler handles GET /advisories
func (h *Handler) getAdvisoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := h.parseAdvisoryQuery(r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	advisories, err := h.store.QueryAdvisories(ctx, q)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query advisories", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := map[string]interface{}{
		"data":      advisories,
		"count":     len(advisories),
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	h.writeJSONResponse(w, http.StatusOK, response)
}

// getAdvisoryHandler handles GET /advisories/{id}
func (h *Handler) getAdvisoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	advisoryID := chi.URLParam(r, "id")

	if advisoryID == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "advisory ID is required")
		return
	}

	advisory, err := h.store.GetAdvisory(ctx, advisoryID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get advisory", "error", err, "advisory_id", advisoryID)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if advisory == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, "Advisory not found")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, advisory)
}

// getCountryInsightHandler handles GET /countries/{country}/insight. The
// country segment accepts aliases ("usa", "UK") which are canonicalized
// before lookup.
func (h *Handler) getCountryInsightHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := chi.URLParam(r, "country")
	country := h.normalizer.NormalizeCountry(raw)
	if country == "Unknown" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "country is required")
		return
	}

	if insight, ok := h.cache.GetInsight(ctx, country); ok {
		w.Header().Set("X-Cache", "hit")
		h.writeJSONResponse(w, http.StatusOK, insight)
		return
	}

	records, err := h.store.QueryAdvisories(ctx, models.AdvisoryQuery{Countries: []string{country}})
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query advisories for insight", "error", err, "country", country)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	insight := h.analyzer.SummarizeCountry(records, country, h.lookbackDays)
	if insight == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("No advisories for %s", country))
		return
	}

	h.cache.SetInsight(ctx, country, insight)

	w.Header().Set("X-Cache", "miss")
	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, insight)
}

// getGlobalRiskHandler handles GET /risk/by-country
func (h *Handler) getGlobalRiskHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.store.QueryAdvisories(ctx, models.AdvisoryQuery{})
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query advisories for ranking", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	ranking := h.analyzer.GlobalRiskByCountry(records)

	response := map[string]interface{}{
		"data":      ranking,
		"count":     len(ranking),
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, response)
}

// getKeywordsHandler handles GET /keywords
func (h *Handler) getKeywordsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 25
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.writeErrorResponse(w, r, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	records, err := h.store.QueryAdvisories(ctx, models.AdvisoryQuery{})
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query advisories for keywords", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	counts := h.analyzer.KeywordFrequencies(records, limit)

	response := map[string]interface{}{
		"data":      counts,
		"count":     len(counts),
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, response)
}

// adminRunPipeline handles POST /admin/pipeline/run
func (h *Handler) adminRunPipeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.pipeline == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "pipeline not configured")
		return
	}

	runID, err := h.pipeline.RunOnce(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("Manual pipeline run failed to start", "error", err)
		h.writeErrorResponse(w, r, http.StatusConflict, err.Error())
		return
	}

	response := map[string]interface{}{
		"status":    "started",
		"run_id":    runID,
		"timestamp": time.Now().UTC(),
	}

	h.writeJSONResponse(w, http.StatusAccepted, response)
}

// parseAdvisoryQuery parses query parameters into AdvisoryQuery
func (h *Handler) parseAdvisoryQuery(r *http.Request) (models.AdvisoryQuery, error) {
	q := models.AdvisoryQuery{}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return q, fmt.Errorf("invalid limit: %s", limitStr)
		}
		if limit < 0 || limit > 1000 {
			return q, fmt.Errorf("limit must be between 0 and 1000")
		}
		q.Limit = limit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return q, fmt.Errorf("invalid offset: %s", offsetStr)
		}
		if offset < 0 {
			return q, fmt.Errorf("offset must be non-negative")
		}
		q.Offset = offset
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return q, fmt.Errorf("invalid since format: %s", sinceStr)
		}
		q.Since = since
	}

	if untilStr := r.URL.Query().Get("until"); untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return q, fmt.Errorf("invalid until format: %s", untilStr)
		}
		q.Until = until
	}

	for _, scoreStr := range r.URL.Query()["risk_score"] {
		score, err := strconv.Atoi(scoreStr)
		if err != nil || score < 0 || score > 4 {
			return q, fmt.Errorf("invalid risk_score: %s", scoreStr)
		}
		q.RiskScores = append(q.RiskScores, score)
	}

	q.Sources = r.URL.Query()["source"]

	// country filters are canonicalized so aliases match stored records
	for _, c := range r.URL.Query()["country"] {
		q.Countries = append(q.Countries, h.normalizer.NormalizeCountry(c))
	}

	return q, nil
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: r.Header.Get("X-Request-ID"),
	}

	h.writeJSONResponse(w, statusCode, response)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
