package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/reelist/reelist/internal/cache"
	"github.com/reelist/reelist/internal/metrics"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/omdb"
	"github.com/reelist/reelist/internal/validator"
)

// Catalog is the external movie metadata source.
type Catalog interface {
	Search(ctx context.Context, query string, page int) (*model.SearchResult, error)
	Movie(ctx context.Context, id string) (*model.Movie, error)
}

// MovieCache stores catalog responses.
type MovieCache interface {
	GetMovie(ctx context.Context, movieID string) (*model.Movie, error)
	SetMovie(ctx context.Context, movie *model.Movie) error
	SetMovieNotFound(ctx context.Context, movieID string) error
	IsMovieNotFound(ctx context.Context, movieID string) (bool, error)
	GetSearch(ctx context.Context, query string, page int) (*model.SearchResult, error)
	SetSearch(ctx context.Context, result *model.SearchResult) error
}

// MovieService reads movie metadata cache-first.
type MovieService struct {
	catalog Catalog
	cache   MovieCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewMovieService creates a new MovieService.
func NewMovieService(catalog Catalog, c MovieCache, logger *slog.Logger, recorder metrics.Recorder) *MovieService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieService{
		catalog: catalog,
		cache:   c,
		logger:  logger.With("component", "service.movie"),
		metrics: recorder,
	}
}

// Search finds titles matching query. Queries shorter than three
// characters return an empty page without contacting the catalog.
func (s *MovieService) Search(ctx context.Context, query string, page int) (*model.SearchResult, error) {
	query = strings.TrimSpace(query)

	v := validator.New()
	validator.ValidateSearch(v, query, page)
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	if utf8.RuneCountInString(query) < validator.MinSearchLength {
		return &model.SearchResult{Query: query, Page: page, Movies: []model.MovieSummary{}}, nil
	}

	cached, err := s.cache.GetSearch(ctx, query, page)
	if err == nil {
		s.metrics.IncMovieCacheHit("search")
		return cached, nil
	}
	s.metrics.IncMovieCacheMiss("search")
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("search cache unavailable", "error", err)
	}

	result, err := s.catalog.Search(ctx, query, page)
	if err != nil {
		return nil, s.catalogError(err)
	}

	if err := s.cache.SetSearch(ctx, result); err != nil {
		s.logger.Warn("failed to cache search result", "error", err)
	}

	return result, nil
}

// GetMovie returns details for one external identifier.
func (s *MovieService) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	if !model.ValidMovieID(id) {
		return nil, ErrMovieNotFound
	}

	movie, err := s.cache.GetMovie(ctx, id)
	if err == nil {
		s.metrics.IncMovieCacheHit("detail")
		return movie, nil
	}
	s.metrics.IncMovieCacheMiss("detail")

	if errors.Is(err, cache.ErrCacheMiss) {
		if missing, _ := s.cache.IsMovieNotFound(ctx, id); missing {
			return nil, ErrMovieNotFound
		}
	} else {
		s.logger.Warn("movie cache unavailable", "error", err)
	}

	movie, err = s.catalog.Movie(ctx, id)
	if err != nil {
		if errors.Is(err, omdb.ErrNotFound) {
			if err := s.cache.SetMovieNotFound(ctx, id); err != nil {
				s.logger.Warn("failed to cache missing movie", "movie_id", id, "error", err)
			}
			return nil, ErrMovieNotFound
		}
		return nil, s.catalogError(err)
	}

	if err := s.cache.SetMovie(ctx, movie); err != nil {
		s.logger.Warn("failed to cache movie", "movie_id", id, "error", err)
	}

	return movie, nil
}

func (s *MovieService) catalogError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}
