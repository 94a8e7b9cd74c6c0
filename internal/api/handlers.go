package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/deployguard/impact-engine/internal/models"
	"github.com/deployguard/impact-engine/internal/services"
	"github.com/deployguard/impact-engine/internal/trends"
)

// AnalysisService defines the operations the handlers delegate to.
type AnalysisService interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (services.AnalysisOutcome, error)
	Recent(ctx context.Context, accountID string, limit int) ([]models.AnalysisRecord, error)
}

// Handlers holds the HTTP handler set for the impact-analysis API.
type Handlers struct {
	logger  *slog.Logger
	service AnalysisService
}

// NewHandlers constructs the handler set.
func NewHandlers(logger *slog.Logger, service AnalysisService) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger, service: service}
}

type analysisData struct {
	AlertExists     bool                `json:"alertExists"`
	ImpactAnalysis  models.ImpactResult `json:"impactAnalysis"`
	Recommendations []string            `json:"recommendations"`
}

// AnalyzeAlert handles POST /api/v1/alerts/impact-analysis.
func (h *Handlers) AnalyzeAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Request body must be valid JSON", nil)
		return
	}

	if errs := validateAnalyzeRequest(req); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed", errs)
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.AccountID != "" && identity.AccountID != req.AccountID && !identity.IsAdmin() {
		writeError(w, http.StatusForbidden, CodeForbidden, "Not authorized for this account", nil)
		return
	}

	outcome, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.logger.Error("impact analysis failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, CodeImpactAnalysisFailed, "Impact analysis failed", nil)
		return
	}

	writeSuccess(w, http.StatusOK, analysisData{
		AlertExists:     outcome.AlertExists,
		ImpactAnalysis:  outcome.Record.Result,
		Recommendations: outcome.Record.Result.Recommendations,
	})
}

// RecentAnalyses handles GET /api/v1/alerts/impact-analysis/recent.
func (h *Handlers) RecentAnalyses(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "accountId query parameter is required", nil)
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.AccountID != "" && identity.AccountID != accountID && !identity.IsAdmin() {
		writeError(w, http.StatusForbidden, CodeForbidden, "Not authorized for this account", nil)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, CodeValidationError, "limit must be an integer between 1 and 100", nil)
			return
		}
		limit = n
	}

	records, err := h.service.Recent(r.Context(), accountID, limit)
	if err != nil {
		h.logger.Error("recent analyses lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, CodeInternalServerError, "Failed to list recent analyses", nil)
		return
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"analyses": records,
		"trends":   trends.Aggregate(records),
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound is the router fallback for unknown paths.
func (h *Handlers) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "Resource not found", nil)
}
