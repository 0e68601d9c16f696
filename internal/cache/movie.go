package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelist/reelist/internal/model"
)

// Cache key prefixes and TTLs.
const (
	movieKeyPrefix    = "movie:"
	negCacheKeySuffix = ":neg"
	searchKeyPrefix   = "search:"

	// MovieTTL is the TTL for cached movie details.
	MovieTTL = 24 * time.Hour

	// SearchTTL is the TTL for cached search pages.
	SearchTTL = time.Hour

	// NegativeCacheTTL is the TTL for unknown movie IDs.
	NegativeCacheTTL = 5 * time.Minute
)

// GetMovie retrieves cached movie details by external ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetMovie(ctx context.Context, movieID string) (*model.Movie, error) {
	data, err := c.client.Get(ctx, movieKeyPrefix+movieID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var movie model.Movie
	if err := json.Unmarshal(data, &movie); err != nil {
		return nil, ErrCacheMiss
	}

	return &movie, nil
}

// SetMovie stores movie details and clears any negative entry.
func (c *Cache) SetMovie(ctx context.Context, movie *model.Movie) error {
	data, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("marshal movie: %w", err)
	}

	key := movieKeyPrefix + movie.IMDbID
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, MovieTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)
	_, err = pipe.Exec(ctx)
	return err
}

// SetMovieNotFound records that the catalog has no entry for movieID.
func (c *Cache) SetMovieNotFound(ctx context.Context, movieID string) error {
	return c.client.Set(ctx, movieKeyPrefix+movieID+negCacheKeySuffix, "1", NegativeCacheTTL).Err()
}

// IsMovieNotFound checks the negative cache for movieID.
func (c *Cache) IsMovieNotFound(ctx context.Context, movieID string) (bool, error) {
	n, err := c.client.Exists(ctx, movieKeyPrefix+movieID+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// GetSearch retrieves a cached search page.
func (c *Cache) GetSearch(ctx context.Context, query string, page int) (*model.SearchResult, error) {
	data, err := c.client.Get(ctx, searchKey(query, page)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result model.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, ErrCacheMiss
	}

	return &result, nil
}

// SetSearch stores a search page.
func (c *Cache) SetSearch(ctx context.Context, result *model.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal search result: %w", err)
	}
	return c.client.Set(ctx, searchKey(result.Query, result.Page), data, SearchTTL).Err()
}

// searchKey normalizes the query so casing and surrounding spaces share an entry.
func searchKey(query string, page int) string {
	return searchKeyPrefix + strings.ToLower(strings.TrimSpace(query)) + ":" + strconv.Itoa(page)
}
