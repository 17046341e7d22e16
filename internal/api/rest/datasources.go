package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/internal/repository"
)

// DataSourcesHandler handles /api/v1/data-sources/* endpoints. Only identity
// matters here; connector configuration lives in the query-runner subsystem.
type DataSourcesHandler struct {
	repo repository.Store
}

// NewDataSourcesHandler creates a new data sources handler
func NewDataSourcesHandler(repo repository.Store) *DataSourcesHandler {
	return &DataSourcesHandler{repo: repo}
}

// RegisterRoutes registers data source routes
func (h *DataSourcesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/data-sources", h.ListDataSources).Methods("GET")
	router.HandleFunc("/data-sources", h.CreateDataSource).Methods("POST")
	router.HandleFunc("/data-sources/{id}", h.GetDataSource).Methods("GET")
}

// ListDataSources lists all data sources
func (h *DataSourcesHandler) ListDataSources(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	sources, err := h.repo.ListDataSources(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sources)
}

// CreateDataSourceRequest is the body for POST /data-sources
type CreateDataSourceRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// CreateDataSource registers a data source identity
func (h *DataSourcesHandler) CreateDataSource(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req CreateDataSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body",
			middleware.RequestIDFromContext(r.Context()))
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name required",
			middleware.RequestIDFromContext(r.Context()))
		return
	}

	ds := &models.DataSource{Name: req.Name, Type: req.Type}
	if err := h.repo.CreateDataSource(r.Context(), ds); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ds)
}

// GetDataSource gets a data source by ID
func (h *DataSourcesHandler) GetDataSource(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	ds, err := h.repo.GetDataSource(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ds)
}
