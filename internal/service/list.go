package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/reelist/reelist/internal/metrics"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/repository"
	"github.com/reelist/reelist/internal/validator"
)

const (
	// DefaultPageSize is used when a caller omits a limit.
	DefaultPageSize = 20
	// hydrateConcurrency bounds in-flight catalog lookups per list.
	hydrateConcurrency = 8
)

// ListStore is the persistence needed for lists.
type ListStore interface {
	CreateList(ctx context.Context, list *model.List) error
	GetListByID(ctx context.Context, id string) (*model.List, error)
	ListLists(ctx context.Context, filter repository.ListFilter, cursor string, limit int) ([]*model.List, string, error)
	UpdateList(ctx context.Context, list *model.List) error
	DeleteList(ctx context.Context, id string) error
	AddMovieToList(ctx context.Context, listID, movieID string) (*model.List, error)
	RemoveMovieFromList(ctx context.Context, listID, movieID string) (*model.List, error)
}

// MovieGetter loads metadata for one movie.
type MovieGetter interface {
	GetMovie(ctx context.Context, id string) (*model.Movie, error)
}

// ListService handles list business logic.
type ListService struct {
	store   ListStore
	movies  MovieGetter
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewListService creates a new ListService.
func NewListService(store ListStore, movies MovieGetter, logger *slog.Logger, recorder metrics.Recorder) *ListService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListService{
		store:   store,
		movies:  movies,
		logger:  logger.With("component", "service.list"),
		metrics: recorder,
	}
}

// CreateListInput defines input for creating a list.
type CreateListInput struct {
	OwnerID    string
	Name       string
	Visibility model.Visibility
	Movies     []string
}

// CreateList creates a list and records it on the owner's profile.
func (s *ListService) CreateList(ctx context.Context, input CreateListInput) (*model.List, error) {
	name := strings.TrimSpace(input.Name)
	visibility := input.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	v := validator.New()
	validator.ValidateListName(v, name)
	validator.ValidateVisibility(v, visibility)
	validator.ValidateMovieIDs(v, input.Movies)
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	now := time.Now().UTC()
	list := &model.List{
		ID:         ulid.Make().String(),
		OwnerID:    input.OwnerID,
		Name:       name,
		Visibility: visibility,
		Movies:     model.DedupeMovieIDs(input.Movies),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateList(ctx, list); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	s.metrics.IncListCreated()
	return list, nil
}

// GetList returns a list if viewerID may see it. viewerID may be empty.
// Private lists are reported as missing to everyone but their owner.
func (s *ListService) GetList(ctx context.Context, viewerID, id string) (*model.List, error) {
	list, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !list.VisibleTo(viewerID) {
		return nil, ErrListNotFound
	}
	return list, nil
}

// ListPage is one page of lists.
type ListPage struct {
	Lists      []*model.List
	NextCursor string
	HasMore    bool
}

// PageInput carries cursor pagination parameters.
type PageInput struct {
	Cursor string
	Limit  int
}

// FindByName returns lists named exactly name that viewerID may see.
func (s *ListService) FindByName(ctx context.Context, viewerID, name string, page PageInput) (*ListPage, error) {
	name = strings.TrimSpace(name)

	v := validator.New()
	validator.ValidateListName(v, name)
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	filter := repository.ListFilter{Name: name}
	if viewerID == "" {
		filter.Visibility = model.VisibilityPublic
	} else {
		filter.VisibleTo = viewerID
	}
	return s.page(ctx, filter, page)
}

// PublicLists returns public lists, newest first.
func (s *ListService) PublicLists(ctx context.Context, page PageInput) (*ListPage, error) {
	return s.page(ctx, repository.ListFilter{Visibility: model.VisibilityPublic}, page)
}

// UserLists returns every list owned by ownerID, private ones included.
func (s *ListService) UserLists(ctx context.Context, ownerID string, page PageInput) (*ListPage, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return s.page(ctx, repository.ListFilter{OwnerID: ownerID}, page)
}

// UpdateListInput defines input for updating a list. Nil fields are left unchanged.
type UpdateListInput struct {
	UserID     string
	ID         string
	Name       *string
	Visibility *model.Visibility
}

// UpdateList renames a list or changes its visibility.
func (s *ListService) UpdateList(ctx context.Context, input UpdateListInput) (*model.List, error) {
	list, err := s.loadForMutation(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	v := validator.New()
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		validator.ValidateListName(v, name)
		list.Name = name
	}
	if input.Visibility != nil {
		validator.ValidateVisibility(v, *input.Visibility)
		list.Visibility = *input.Visibility
	}
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	if err := s.store.UpdateList(ctx, list); err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to update list: %w", err)
	}

	s.metrics.IncListUpdated()
	return list, nil
}

// DeleteList removes a list and drops it from the owner's profile.
func (s *ListService) DeleteList(ctx context.Context, userID, id string) error {
	if _, err := s.loadForMutation(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.DeleteList(ctx, id); err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			return ErrListNotFound
		}
		return fmt.Errorf("failed to delete list: %w", err)
	}

	s.metrics.IncListDeleted()
	return nil
}

// AddMovie appends movieID to the list. Adding a present movie is a no-op.
func (s *ListService) AddMovie(ctx context.Context, userID, listID, movieID string) (*model.List, error) {
	v := validator.New()
	validator.ValidateMovieID(v, "movie_id", movieID)
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	list, err := s.loadForMutation(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list.HasMovie(movieID) {
		return list, nil
	}

	updated, err := s.store.AddMovieToList(ctx, listID, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to add movie: %w", err)
	}

	s.metrics.IncListMovieAdded()
	return updated, nil
}

// RemoveMovie drops movieID from the list. Removing an absent movie is a no-op.
func (s *ListService) RemoveMovie(ctx context.Context, userID, listID, movieID string) (*model.List, error) {
	list, err := s.loadForMutation(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if !list.HasMovie(movieID) {
		return list, nil
	}

	updated, err := s.store.RemoveMovieFromList(ctx, listID, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to remove movie: %w", err)
	}

	s.metrics.IncListMovieRemoved()
	return updated, nil
}

// HydratedList is a list with catalog metadata for each entry.
// Movies is index-aligned with List.Movies; entries that failed to load are nil.
type HydratedList struct {
	List   *model.List
	Movies []*model.Movie
}

// ListMovies loads metadata for every movie on a visible list.
func (s *ListService) ListMovies(ctx context.Context, viewerID, id string) (*HydratedList, error) {
	list, err := s.GetList(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}

	movies := make([]*model.Movie, len(list.Movies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i, movieID := range list.Movies {
		g.Go(func() error {
			movie, err := s.movies.GetMovie(gctx, movieID)
			if err != nil {
				// A single missing title must not fail the whole list.
				s.logger.Warn("failed to load list movie",
					"list_id", list.ID,
					"movie_id", movieID,
					"error", err,
				)
				return nil
			}
			movies[i] = movie
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &HydratedList{List: list, Movies: movies}, nil
}

func (s *ListService) page(ctx context.Context, filter repository.ListFilter, page PageInput) (*ListPage, error) {
	if page.Limit == 0 {
		page.Limit = DefaultPageSize
	}

	v := validator.New()
	validator.ValidatePageSize(v, page.Limit)
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	lists, next, err := s.store.ListLists(ctx, filter, page.Cursor, page.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}

	return &ListPage{
		Lists:      lists,
		NextCursor: next,
		HasMore:    next != "",
	}, nil
}

func (s *ListService) load(ctx context.Context, id string) (*model.List, error) {
	list, err := s.store.GetListByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

// loadForMutation returns the list when userID owns it. Non-owners get
// ErrListNotFound for private lists and ErrForbidden for public ones.
func (s *ListService) loadForMutation(ctx context.Context, userID, id string) (*model.List, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	list, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !list.IsOwnedBy(userID) {
		if list.IsPublic() {
			return nil, ErrForbidden
		}
		return nil, ErrListNotFound
	}

	return list, nil
}
