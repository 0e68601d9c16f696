package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelist/reelist/internal/auth"
	"github.com/reelist/reelist/internal/handler/dto"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/service"
	"github.com/reelist/reelist/internal/validator"
)

// ListService is the list surface used by ListHandler.
type ListService interface {
	CreateList(ctx context.Context, input service.CreateListInput) (*model.List, error)
	GetList(ctx context.Context, viewerID, id string) (*model.List, error)
	FindByName(ctx context.Context, viewerID, name string, page service.PageInput) (*service.ListPage, error)
	PublicLists(ctx context.Context, page service.PageInput) (*service.ListPage, error)
	UserLists(ctx context.Context, ownerID string, page service.PageInput) (*service.ListPage, error)
	UpdateList(ctx context.Context, input service.UpdateListInput) (*model.List, error)
	DeleteList(ctx context.Context, userID, id string) error
	AddMovie(ctx context.Context, userID, listID, movieID string) (*model.List, error)
	RemoveMovie(ctx context.Context, userID, listID, movieID string) (*model.List, error)
	ListMovies(ctx context.Context, viewerID, id string) (*service.HydratedList, error)
}

// ListHandler handles HTTP requests for list operations.
type ListHandler struct {
	svc    ListService
	logger *slog.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(svc ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/lists.
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateListRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	list, err := h.svc.CreateList(r.Context(), service.CreateListInput{
		OwnerID:    auth.UserIDFromContext(r.Context()),
		Name:       req.Name,
		Visibility: model.Visibility(req.Visibility),
		Movies:     req.Movies,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("list_created",
		"list_id", list.ID,
		"owner_id", list.OwnerID,
		"visibility", list.Visibility,
		"movie_count", len(list.Movies),
	)

	writeJSON(w, http.StatusCreated, dto.ToListResponse(list))
}

// Get handles GET /api/v1/lists/{id}.
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.GetList(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToListResponse(list))
}

// FindByName handles GET /api/v1/lists?name=.
func (h *ListHandler) FindByName(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	v := validator.New()
	page := readPage(qs, v)
	if !v.Valid() {
		writeValidationError(w, v.Errors)
		return
	}

	result, err := h.svc.FindByName(r.Context(), auth.UserIDFromContext(r.Context()), qs.Get("name"), page)
	h.writePage(w, r, result, err)
}

// Public handles GET /api/v1/lists/public.
func (h *ListHandler) Public(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	page := readPage(r.URL.Query(), v)
	if !v.Valid() {
		writeValidationError(w, v.Errors)
		return
	}

	result, err := h.svc.PublicLists(r.Context(), page)
	h.writePage(w, r, result, err)
}

// Mine handles GET /api/v1/lists/mine.
func (h *ListHandler) Mine(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	page := readPage(r.URL.Query(), v)
	if !v.Valid() {
		writeValidationError(w, v.Errors)
		return
	}

	result, err := h.svc.UserLists(r.Context(), auth.UserIDFromContext(r.Context()), page)
	h.writePage(w, r, result, err)
}

// Update handles PATCH /api/v1/lists/{id}.
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateListRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateListInput{
		UserID: auth.UserIDFromContext(r.Context()),
		ID:     chi.URLParam(r, "id"),
		Name:   req.Name,
	}
	if req.Visibility != nil {
		visibility := model.Visibility(*req.Visibility)
		input.Visibility = &visibility
	}

	list, err := h.svc.UpdateList(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("list_updated",
		"list_id", list.ID,
		"visibility", list.Visibility,
	)

	writeJSON(w, http.StatusOK, dto.ToListResponse(list))
}

// Delete handles DELETE /api/v1/lists/{id}.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteList(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("list_deleted", "list_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// AddMovie handles POST /api/v1/lists/{id}/movies.
func (h *ListHandler) AddMovie(w http.ResponseWriter, r *http.Request) {
	var req dto.AddMovieRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	list, err := h.svc.AddMovie(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.MovieID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToListResponse(list))
}

// RemoveMovie handles DELETE /api/v1/lists/{id}/movies/{movieID}.
func (h *ListHandler) RemoveMovie(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.RemoveMovie(r.Context(),
		auth.UserIDFromContext(r.Context()),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "movieID"),
	)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToListResponse(list))
}

// Movies handles GET /api/v1/lists/{id}/movies.
func (h *ListHandler) Movies(w http.ResponseWriter, r *http.Request) {
	hydrated, err := h.svc.ListMovies(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToListMoviesResponse(hydrated.List, hydrated.Movies))
}

func (h *ListHandler) writePage(w http.ResponseWriter, r *http.Request, page *service.ListPage, err error) {
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToListListResponse(page.Lists, page.NextCursor, page.HasMore))
}
