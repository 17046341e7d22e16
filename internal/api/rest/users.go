package rest

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/internal/repository"
)

// UsersHandler handles /api/v1/users/* endpoints
type UsersHandler struct {
	repo     repository.Store
	resolver *authz.Resolver
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(repo repository.Store, resolver *authz.Resolver) *UsersHandler {
	return &UsersHandler{repo: repo, resolver: resolver}
}

// RegisterRoutes registers user routes
func (h *UsersHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}/permissions", h.GetPermissions).Methods("GET")
}

// CreateUserRequest is the body for POST /users
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// CreateUser creates a new user
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body",
			middleware.RequestIDFromContext(r.Context()))
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "email required",
			middleware.RequestIDFromContext(r.Context()))
		return
	}

	user := &models.User{Email: req.Email, Name: req.Name}
	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// GetUser gets a user by ID
func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	user, err := h.repo.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PermissionsResponse is the resolved permission snapshot for one user.
type PermissionsResponse struct {
	UserID        string            `json:"user_id"`
	Levels        map[string]string `json:"levels"`
	Capabilities  []string          `json:"capabilities"`
	DashboardOnly bool              `json:"dashboard_only"`
}

// GetPermissions exposes a user's resolved effective access for admin
// debugging: per-data-source levels, capability union, dashboard-only flag.
func (h *UsersHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	userID := mux.Vars(r)["id"]

	snap, err := h.resolver.Snapshot(r.Context(), userID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	levels := make(map[string]string, len(snap.Levels))
	for dataSourceID, level := range snap.Levels {
		levels[dataSourceID] = level.String()
	}
	caps := snap.Capabilities.Strings()
	sort.Strings(caps)

	respondJSON(w, http.StatusOK, PermissionsResponse{
		UserID:        userID,
		Levels:        levels,
		Capabilities:  caps,
		DashboardOnly: snap.DashboardOnly,
	})
}
