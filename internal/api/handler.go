// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"github-scraper/internal/model"
	"github-scraper/internal/store"
)

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

// Handler is the container for API dependencies.
type Handler struct {
	db     store.Reader
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db store.Reader, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:     db,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/users", h.listUsers)
		r.Get("/users/{login}", h.getUser)
		r.Get("/users/{login}/repos", h.listUserRepositories)
		r.Get("/repos", h.listRepositories)
		r.Get("/repos/{owner}/{name}", h.getRepository)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listUsers handles the paginated user listing.
// GET /v1/users?since=N&per_page=N
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	since, perPage, ok := paginationParams(w, r)
	if !ok {
		return
	}

	users, err := h.db.ListUsers(r.Context(), since, perPage)
	if err != nil {
		h.logger.Error("Failed to list users", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if users == nil {
		users = []model.User{}
	}

	respondWithJSON(w, http.StatusOK, users)
}

// getUser handles the user detail view.
// GET /v1/users/{login}
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	user, err := h.db.GetUserByLogin(r.Context(), login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to get user", "login", login, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// listUserRepositories handles listing one user's repositories.
// GET /v1/users/{login}/repos?since=N&per_page=N
func (h *Handler) listUserRepositories(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")
	since, perPage, ok := paginationParams(w, r)
	if !ok {
		return
	}

	repos, err := h.db.ListRepositoriesByOwnerLogin(r.Context(), login, since, perPage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to list user repositories", "login", login, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if repos == nil {
		repos = []model.Repository{}
	}

	respondWithJSON(w, http.StatusOK, repos)
}

// listRepositories handles the paginated repository listing.
// GET /v1/repos?since=N&per_page=N
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	since, perPage, ok := paginationParams(w, r)
	if !ok {
		return
	}

	repos, err := h.db.ListRepositories(r.Context(), since, perPage)
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if repos == nil {
		repos = []model.Repository{}
	}

	respondWithJSON(w, http.StatusOK, repos)
}

// getRepository handles the repository detail view, looked up by full name.
// GET /v1/repos/{owner}/{name}
func (h *Handler) getRepository(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")
	fullName := owner + "/" + name

	repo, err := h.db.GetRepositoryByFullName(r.Context(), fullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("Failed to get repository", "full_name", fullName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, repo)
}

// paginationParams reads the since cursor and per_page size from the query
// string, writing a 400 response and returning ok=false on invalid input.
func paginationParams(w http.ResponseWriter, r *http.Request) (since int64, perPage int, ok bool) {
	perPage = defaultPerPage
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPerPage {
			respondWithError(w, http.StatusBadRequest, "Invalid 'per_page' parameter. Must be an integer between 1 and 100.")
			return 0, 0, false
		}
		perPage = n
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'since' parameter. Must be a non-negative integer.")
			return 0, 0, false
		}
		since = n
	}

	return since, perPage, true
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
