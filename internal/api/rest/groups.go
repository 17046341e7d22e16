package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/models"
	"github.com/quickboard/quickboard-backend/internal/repository"
)

// GroupsHandler handles /api/v1/groups/* endpoints
type GroupsHandler struct {
	repo     repository.Store
	resolver *authz.Resolver
}

// NewGroupsHandler creates a new groups handler
func NewGroupsHandler(repo repository.Store, resolver *authz.Resolver) *GroupsHandler {
	return &GroupsHandler{repo: repo, resolver: resolver}
}

// RegisterRoutes registers group routes
func (h *GroupsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/groups", h.ListGroups).Methods("GET")
	router.HandleFunc("/groups", h.CreateGroup).Methods("POST")
	router.HandleFunc("/groups/{id}", h.GetGroup).Methods("GET")
	router.HandleFunc("/groups/{id}", h.UpdateGroupType).Methods("PATCH")
	router.HandleFunc("/groups/{id}", h.DeleteGroup).Methods("DELETE")
	router.HandleFunc("/groups/{id}/members", h.ListMembers).Methods("GET")
	router.HandleFunc("/groups/{id}/members", h.AddMember).Methods("POST")
	router.HandleFunc("/groups/{id}/members/{userId}", h.RemoveMember).Methods("DELETE")
	router.HandleFunc("/groups/{id}/grants", h.ListGrants).Methods("GET")
	router.HandleFunc("/groups/{id}/grants", h.SetGrant).Methods("POST")
	router.HandleFunc("/groups/{id}/grants/{dataSourceId}", h.RemoveGrant).Methods("DELETE")
}

// ListGroups lists all groups
func (h *GroupsHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	groups, err := h.repo.ListGroups(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// CreateGroupRequest is the body for POST /groups
type CreateGroupRequest struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"` // regular (default), dashboard_only
	Capabilities []string `json:"capabilities,omitempty"`
}

// CreateGroup creates a new group. Dashboard-only groups always end up
// holding the view_cached_results capability, whether or not it was listed.
func (h *GroupsHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req CreateGroupRequest
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

	groupType, err := authz.ParseGroupType(req.Type)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	caps, err := authz.ParseCapabilitySet(req.Capabilities)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if groupType == authz.GroupTypeDashboardOnly {
		caps = caps.Union(authz.NewCapabilitySet(authz.CapabilityViewCachedResults))
	}

	group := &models.Group{
		Name:         req.Name,
		Type:         string(groupType),
		Capabilities: caps.Strings(),
	}
	if err := h.repo.CreateGroup(r.Context(), group); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

// GetGroup gets a group by ID
func (h *GroupsHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	group, err := h.repo.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// UpdateGroupTypeRequest is the body for PATCH /groups/{id}
type UpdateGroupTypeRequest struct {
	Type string `json:"type"`
}

// UpdateGroupType changes a group's type. Converting to dashboard_only clamps
// the group's existing full grants to view_only.
func (h *GroupsHandler) UpdateGroupType(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	groupID := mux.Vars(r)["id"]

	var req UpdateGroupTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body",
			middleware.RequestIDFromContext(r.Context()))
		return
	}
	groupType, err := authz.ParseGroupType(req.Type)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	if err := h.repo.UpdateGroupType(r.Context(), groupID, groupType); err != nil {
		respondEngineError(w, r, err)
		return
	}
	if err := h.resolver.InvalidateGroup(r.Context(), groupID); err != nil {
		respondEngineError(w, r, err)
		return
	}

	group, err := h.repo.GetGroup(r.Context(), groupID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// DeleteGroup deletes a group; membership and grant rows cascade with it.
func (h *GroupsHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	groupID := mux.Vars(r)["id"]

	// Evict members before the cascade removes the membership rows.
	if err := h.resolver.InvalidateGroup(r.Context(), groupID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	if err := h.repo.DeleteGroup(r.Context(), groupID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers lists members of a group
func (h *GroupsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	members, err := h.repo.MembersOf(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// AddMemberRequest is the body for POST /groups/{id}/members.
// Either user_id or email identifies the user.
type AddMemberRequest struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// AddMember adds a user to a group. Adding an existing member is a no-op.
func (h *GroupsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	groupID := mux.Vars(r)["id"]

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body",
			middleware.RequestIDFromContext(r.Context()))
		return
	}

	userID := req.UserID
	if userID == "" && req.Email != "" {
		user, err := h.repo.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			respondEngineError(w, r, err)
			return
		}
		userID = user.ID
	}
	if userID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "user_id or email required",
			middleware.RequestIDFromContext(r.Context()))
		return
	}

	if err := h.repo.AddMember(r.Context(), groupID, userID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.resolver.InvalidateUser(userID)

	respondJSON(w, http.StatusOK, map[string]string{"group_id": groupID, "user_id": userID})
}

// RemoveMember removes a user from a group
func (h *GroupsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	vars := mux.Vars(r)

	if err := h.repo.RemoveMember(r.Context(), vars["id"], vars["userId"]); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.resolver.InvalidateUser(vars["userId"])
	w.WriteHeader(http.StatusNoContent)
}

// ListGrants lists a group's data-source grants
func (h *GroupsHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	grants, err := h.repo.ListGrants(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, grants)
}

// SetGrantRequest is the body for POST /groups/{id}/grants
type SetGrantRequest struct {
	DataSourceID string `json:"data_source_id"`
	Level        string `json:"level"` // view_only, full
}

// SetGrantResponse carries the effective stored level, which may be weaker
// than the requested one for dashboard_only groups.
type SetGrantResponse struct {
	GroupID      string `json:"group_id"`
	DataSourceID string `json:"data_source_id"`
	Level        string `json:"level"`
}

// SetGrant adds or updates a group's grant on a data source
func (h *GroupsHandler) SetGrant(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	groupID := mux.Vars(r)["id"]

	var req SetGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body",
			middleware.RequestIDFromContext(r.Context()))
		return
	}
	if req.DataSourceID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "data_source_id required",
			middleware.RequestIDFromContext(r.Context()))
		return
	}
	level, err := authz.ParseGrantLevel(req.Level)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	effective, err := h.repo.SetGrant(r.Context(), groupID, req.DataSourceID, level)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if err := h.resolver.InvalidateGroup(r.Context(), groupID); err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SetGrantResponse{
		GroupID:      groupID,
		DataSourceID: req.DataSourceID,
		Level:        effective.String(),
	})
}

// RemoveGrant removes a group's grant on a data source; idempotent.
func (h *GroupsHandler) RemoveGrant(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	vars := mux.Vars(r)
	groupID := vars["id"]

	if err := h.repo.RemoveGrant(r.Context(), groupID, vars["dataSourceId"]); err != nil {
		respondEngineError(w, r, err)
		return
	}
	if err := h.resolver.InvalidateGroup(r.Context(), groupID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
