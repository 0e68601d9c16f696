package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/validator"
)

// MovieService is the catalog surface used by MovieHandler.
type MovieService interface {
	Search(ctx context.Context, query string, page int) (*model.SearchResult, error)
	GetMovie(ctx context.Context, id string) (*model.Movie, error)
}

// MovieHandler serves catalog lookups.
type MovieHandler struct {
	svc    MovieService
	logger *slog.Logger
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc MovieService, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{svc: svc, logger: logger}
}

// Search handles GET /api/v1/movies/search?q=&page=.
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	v := validator.New()
	page := readInt(qs, "page", 1, v)
	if !v.Valid() {
		writeValidationError(w, v.Errors)
		return
	}

	result, err := h.svc.Search(r.Context(), qs.Get("q"), page)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/movies/{imdbID}.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	movie, err := h.svc.GetMovie(r.Context(), chi.URLParam(r, "imdbID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}
