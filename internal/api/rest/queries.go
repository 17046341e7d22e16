package rest

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/internal/pkg/logger"
	"github.com/quickboard/quickboard-backend/internal/repository"
)

// QueriesHandler handles /api/v1/queries/* endpoints
type QueriesHandler struct {
	repo  repository.Store
	guard *authz.ExecutionGuard
}

// NewQueriesHandler creates a new queries handler
func NewQueriesHandler(repo repository.Store, guard *authz.ExecutionGuard) *QueriesHandler {
	return &QueriesHandler{repo: repo, guard: guard}
}

// RegisterRoutes registers query routes
func (h *QueriesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/queries/{id}", h.GetQuery).Methods("GET")
	router.HandleFunc("/queries/{id}/execute", h.ExecuteQuery).Methods("POST")
	router.HandleFunc("/queries/{id}/result", h.GetLatestResult).Methods("GET")
}

// QueryResponse is the body for GET /queries/{id}. CanExecute tells the UI
// whether to render the execute control as active.
type QueryResponse struct {
	Query      *models.Query `json:"query"`
	CanExecute bool          `json:"can_execute"`
}

// GetQuery fetches query metadata plus the caller's execute decision
func (h *QueriesHandler) GetQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	queryID := mux.Vars(r)["id"]

	query, err := h.repo.GetQuery(r.Context(), queryID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	canExecute, err := h.guard.CanExecute(r.Context(), userID, queryID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, QueryResponse{Query: query, CanExecute: canExecute})
}

// ExecuteQuery gates a new query run on full data-source access. Execution
// itself belongs to the query-runner subsystem; this endpoint records the
// decision and returns an accepted marker.
func (h *QueriesHandler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.RequestIDFromContext(r.Context())
	queryID := mux.Vars(r)["id"]

	if err := h.guard.AuthorizeExecution(r.Context(), userID, queryID); err != nil {
		if errors.Is(err, authz.ErrPermissionDenied) {
			logger.DecisionLog(reqID, userID, "query_execute", "denied", queryID)
		}
		respondEngineError(w, r, err)
		return
	}
	logger.DecisionLog(reqID, userID, "query_execute", "granted", queryID)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":   "queued",
		"query_id": queryID,
	})
}

// GetLatestResult returns the most recent stored result for a query. A
// view_only grant is enough to read it; triggering a fresh run is not.
func (h *QueriesHandler) GetLatestResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.RequestIDFromContext(r.Context())
	queryID := mux.Vars(r)["id"]

	canView, err := h.guard.CanViewResult(r.Context(), userID, queryID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if !canView {
		logger.DecisionLog(reqID, userID, "result_view", "denied", queryID)
		respondError(w, http.StatusForbidden, ErrCodeForbidden,
			"You do not have permission to view results for this query", reqID)
		return
	}

	result, err := h.repo.LatestQueryResult(r.Context(), queryID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	logger.DecisionLog(reqID, userID, "result_view", "granted", queryID)
	respondJSON(w, http.StatusOK, result)
}
