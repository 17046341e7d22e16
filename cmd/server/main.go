package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/quickboard/quickboard-backend/internal/api/middleware"
	"github.com/quickboard/quickboard-backend/internal/api/rest"
	"github.com/quickboard/quickboard-backend/internal/authz"
	"github.com/quickboard/quickboard-backend/internal/config"
	"github.com/quickboard/quickboard-backend/internal/repository"
	"github.com/quickboard/quickboard-backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Configuration loaded: port=%d, driver=%s", cfg.Port, cfg.DatabaseDriver)

	repo, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repo.Close()

	cache, err := authz.NewResolutionCache(
		cfg.PermissionCacheSize,
		time.Duration(cfg.PermissionCacheTTLSec)*time.Second,
	)
	if err != nil {
		log.Fatalf("Failed to create permission cache: %v", err)
	}
	resolver := authz.NewResolver(repo, cache)
	visibility := authz.NewDashboardVisibility(resolver, repo)
	guard := authz.NewExecutionGuard(resolver, repo)

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Identity)
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	rest.SetupRoutes(router, repo, resolver, visibility, guard)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-User-ID", "X-User-Role", "X-Request-ID"},
		AllowCredentials: true,
	})

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

func openStore(cfg *config.Config) (repository.Store, error) {
	schema, err := migrations.Schema(cfg.DatabaseDriver)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	switch cfg.DatabaseDriver {
	case "postgres":
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(schema); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return repo, nil
	default:
		repo, err := repository.NewSQLiteRepository(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(schema); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return repo, nil
	}
}
