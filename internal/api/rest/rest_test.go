package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/repository"
	"github.com/quickboard/quickboard-backend/migrations"
)

// testEnv carries a fully wired API over a throwaway SQLite database.
type testEnv struct {
	handler http.Handler
	repo    repository.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := repository.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	schema, err := migrations.Schema("sqlite")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if err := repo.RunMigrations(schema); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cache, err := authz.NewResolutionCache(64, time.Minute)
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	resolver := authz.NewResolver(repo, cache)
	visibility := authz.NewDashboardVisibility(resolver, repo)
	guard := authz.NewExecutionGuard(resolver, repo)

	router := mux.NewRouter()
	SetupRoutes(router, repo, resolver, visibility, guard)

	return &testEnv{
		handler: middleware.RequestID(middleware.Identity(router)),
		repo:    repo,
	}
}

// do performs a request as the given caller; an empty userID means anonymous,
// role "admin" unlocks the management surface.
func (e *testEnv) do(t *testing.T, method, path, userID, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) ctx() context.Context {
	return context.Background()
}
