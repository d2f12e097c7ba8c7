package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/temporal/workflows"
	"github.com/clintrovert/release-tickets/pkg/types"
)

// ExtractionRunner starts extraction workflows and collects their results
type ExtractionRunner interface {
	StartExtraction(ctx context.Context, input workflows.ExtractionInput) (string, error)
	GetExtractionResult(ctx context.Context, workflowID string) (*types.ExtractionResult, error)
	CancelExtraction(ctx context.Context, workflowID string) error
}

// Handler handles REST API requests
type Handler struct {
	runner ExtractionRunner
	logger *zap.Logger
}

// NewHandler creates a new REST handler
func NewHandler(runner ExtractionRunner, logger *zap.Logger) *Handler {
	return &Handler{
		runner: runner,
		logger: logger,
	}
}

// StartExtractionRequest represents a request to start an extraction
type StartExtractionRequest struct {
	Owner      string `json:"owner"`
	Repository string `json:"repository"`
	ProjectKey string `json:"project_key"`
	AllMatches bool   `json:"all_matches"`
}

// StartExtractionResponse represents the response from starting an extraction
type StartExtractionResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
}

// StartExtraction handles POST /extractions
func (h *Handler) StartExtraction(w http.ResponseWriter, r *http.Request) {
	var req StartExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req.Owner = strings.TrimSpace(req.Owner)
	req.Repository = strings.TrimSpace(req.Repository)
	if req.Owner == "" || req.Repository == "" {
		http.Error(w, "owner and repository are required", http.StatusBadRequest)
		return
	}

	input := workflows.ExtractionInput{
		Repository: types.RepositoryInfo{Owner: req.Owner, Name: req.Repository},
		ProjectKey: strings.TrimSpace(req.ProjectKey),
		AllMatches: req.AllMatches,
	}

	workflowID, err := h.runner.StartExtraction(r.Context(), input)
	if err != nil {
		h.logger.Error("failed to start extraction", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, StartExtractionResponse{
		WorkflowID: workflowID,
		Status:     "started",
	})
}

// GetExtraction handles GET /extractions/{id}
func (h *Handler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "id")

	result, err := h.runner.GetExtractionResult(r.Context(), workflowID)
	if err != nil {
		h.logger.Warn("extraction result unavailable",
			zap.String("workflow_id", workflowID),
			zap.Error(err),
		)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CancelExtraction handles DELETE /extractions/{id}
func (h *Handler) CancelExtraction(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "id")

	if err := h.runner.CancelExtraction(r.Context(), workflowID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RegisterRoutes registers REST API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/extractions", h.StartExtraction)
	r.Get("/extractions/{id}", h.GetExtraction)
	r.Delete("/extractions/{id}", h.CancelExtraction)
}

// NewRouter mounts the API under /api/v1 next to a health check
func NewRouter(h *Handler) chi.Router {
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
