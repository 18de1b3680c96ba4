// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"commit-harvester/internal/model"
)

// Store is the read-side slice of the metadata store the API serves from.
type Store interface {
	RepositoryExists(ctx context.Context, repo string) (bool, error)
	GetCommitsByRepository(ctx context.Context, repo string, limit int) ([]model.Commit, error)
	GetFilesByCommit(ctx context.Context, hash string) ([]model.FileChange, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	db     Store
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db Store, logger *slog.Logger) http.Handler {
	h := &Handler{db: db, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos/{owner}/{name}/commits", h.getCommits)
		r.Get("/commits/{sha}/files", h.getCommitFiles)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getCommits returns the most recently collected commits of a repository.
// GET /v1/repos/{owner}/{name}/commits?limit=N
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "50"
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 500 {
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 500.")
		return
	}

	commits, err := h.db.GetCommitsByRepository(r.Context(), repo, limit)
	if err != nil {
		h.logger.Error("Failed to get commits", "repo", repo, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(commits) == 0 {
		// A catalogued repository with no collected commits is an empty list,
		// not a 404.
		exists, err := h.db.RepositoryExists(r.Context(), repo)
		if err != nil {
			h.logger.Error("Failed to look up repository", "repo", repo, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !exists {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		respondWithJSON(w, http.StatusOK, []model.Commit{})
		return
	}

	respondWithJSON(w, http.StatusOK, commits)
}

// getCommitFiles returns the per-file change records of a commit.
// GET /v1/commits/{sha}/files
func (h *Handler) getCommitFiles(w http.ResponseWriter, r *http.Request) {
	sha := chi.URLParam(r, "sha")

	files, err := h.db.GetFilesByCommit(r.Context(), sha)
	if err != nil {
		h.logger.Error("Failed to get commit files", "sha", sha, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(files) == 0 {
		respondWithError(w, http.StatusNotFound, "Commit not found")
		return
	}

	respondWithJSON(w, http.StatusOK, files)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
