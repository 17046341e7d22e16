package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/repository"
)

// SetupRoutes wires every handler under /api/v1 plus the operational
// endpoints.
func SetupRoutes(router *mux.Router, repo repository.Store, resolver *authz.Resolver,
	visibility *authz.DashboardVisibility, guard *authz.ExecutionGuard) {

	api := router.PathPrefix("/api/v1").Subrouter()
	NewGroupsHandler(repo, resolver).RegisterRoutes(api)
	NewUsersHandler(repo, resolver).RegisterRoutes(api)
	NewDataSourcesHandler(repo).RegisterRoutes(api)
	NewDashboardsHandler(repo, visibility).RegisterRoutes(api)
	NewQueriesHandler(repo, guard).RegisterRoutes(api)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "quickboard-backend",
		})
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
