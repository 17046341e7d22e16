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

// DashboardsHandler handles /api/v1/dashboards/* endpoints
type DashboardsHandler struct {
	repo       repository.Store
	visibility *authz.DashboardVisibility
}

// NewDashboardsHandler creates a new dashboards handler
func NewDashboardsHandler(repo repository.Store, visibility *authz.DashboardVisibility) *DashboardsHandler {
	return &DashboardsHandler{repo: repo, visibility: visibility}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/dashboards", h.ListDashboards).Methods("GET")
	router.HandleFunc("/dashboards/{id}", h.GetDashboard).Methods("GET")
}

// DashboardListResponse is the body for GET /dashboards
type DashboardListResponse struct {
	Results []*models.Dashboard `json:"results"`
	Count   int                 `json:"count"`
}

// ListDashboards lists dashboards the caller may see, applying the
// visibility filter before results and counts. The optional ?q= search term
// is matched against dashboard names.
func (h *DashboardsHandler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	search := r.URL.Query().Get("q")

	dashboards, err := h.repo.ListDashboards(r.Context(), search, userID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	listable, err := h.visibility.FilterListable(r.Context(), userID, dashboards)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, DashboardListResponse{Results: listable, Count: len(listable)})
}

// DashboardResponse is the body for GET /dashboards/{id}
type DashboardResponse struct {
	Dashboard *models.Dashboard `json:"dashboard"`
	Widgets   []*models.Widget  `json:"widgets"`
}

// GetDashboard fetches one dashboard by id or slug, enforcing the same
// visibility predicate as listing. A dashboard the caller may not see
// yields a uniform 403 carrying no dashboard metadata.
func (h *DashboardsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.RequestIDFromContext(r.Context())
	ref := mux.Vars(r)["id"]

	dashboard, err := h.repo.GetDashboard(r.Context(), ref)
	if errors.Is(err, authz.ErrNotFound) {
		dashboard, err = h.repo.GetDashboardBySlug(r.Context(), ref)
	}
	if err != nil {
		logger.DecisionLog(reqID, userID, "dashboard_view", "not_found", ref)
		respondEngineError(w, r, err)
		return
	}
	// Archived dashboards behave as deleted.
	if dashboard.IsArchived {
		logger.DecisionLog(reqID, userID, "dashboard_view", "not_found", ref)
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "dashboard "+ref+": not found", reqID)
		return
	}

	visible, err := h.visibility.IsVisible(r.Context(), userID, dashboard.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if !visible {
		logger.DecisionLog(reqID, userID, "dashboard_view", "denied", dashboard.ID)
		respondError(w, http.StatusForbidden, ErrCodeForbidden,
			"You do not have permission to view this dashboard", reqID)
		return
	}
	logger.DecisionLog(reqID, userID, "dashboard_view", "granted", dashboard.ID)

	widgets, err := h.repo.ListWidgets(r.Context(), dashboard.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DashboardResponse{Dashboard: dashboard, Widgets: widgets})
}
