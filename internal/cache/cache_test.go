package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelist/reelist/internal/model"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewFromClient(client), mr
}

func TestMovieCache_RoundTrip(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetMovie(ctx, "tt0111161")
	require.ErrorIs(t, err, ErrCacheMiss)

	movie := &model.Movie{IMDbID: "tt0111161", Title: "The Shawshank Redemption", Year: "1994"}
	require.NoError(t, c.SetMovie(ctx, movie))

	got, err := c.GetMovie(ctx, "tt0111161")
	require.NoError(t, err)
	assert.Equal(t, movie, got)

	ttl := mr.TTL(movieKeyPrefix + "tt0111161")
	assert.Equal(t, MovieTTL, ttl)
}

func TestMovieCache_NegativeEntryClearedOnSet(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	ctx := context.Background()

	missing, err := c.IsMovieNotFound(ctx, "tt9999999")
	require.NoError(t, err)
	assert.False(t, missing)

	require.NoError(t, c.SetMovieNotFound(ctx, "tt9999999"))
	missing, err = c.IsMovieNotFound(ctx, "tt9999999")
	require.NoError(t, err)
	assert.True(t, missing)

	mr.FastForward(NegativeCacheTTL + time.Second)
	missing, err = c.IsMovieNotFound(ctx, "tt9999999")
	require.NoError(t, err)
	assert.False(t, missing, "negative entry should expire")

	require.NoError(t, c.SetMovieNotFound(ctx, "tt9999999"))
	require.NoError(t, c.SetMovie(ctx, &model.Movie{IMDbID: "tt9999999", Title: "Late Arrival"}))
	missing, err = c.IsMovieNotFound(ctx, "tt9999999")
	require.NoError(t, err)
	assert.False(t, missing, "storing the movie should clear the negative entry")
}

func TestMovieCache_CorruptedEntryIsMiss(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set(movieKeyPrefix+"tt1", "{not json"))

	_, err := c.GetMovie(context.Background(), "tt1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSearchCache_NormalizesQuery(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	ctx := context.Background()

	result := &model.SearchResult{
		Query:        "Alien",
		Page:         2,
		TotalResults: 1,
		Movies:       []model.MovieSummary{{IMDbID: "tt0078748", Title: "Alien", Year: "1979", Type: "movie"}},
	}
	require.NoError(t, c.SetSearch(ctx, result))

	got, err := c.GetSearch(ctx, "  alien ", 2)
	require.NoError(t, err)
	assert.Equal(t, result, got)

	_, err = c.GetSearch(ctx, "alien", 1)
	assert.ErrorIs(t, err, ErrCacheMiss, "pages are cached independently")
}

func TestAuthContextCache(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	ctx := context.Background()

	authCtx := &model.AuthContext{
		SessionID: "s1",
		UserID:    "u1",
		Email:     "ana@example.com",
		Username:  "ana",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, c.SetAuthContext(ctx, "hash1", authCtx))

	got, err := c.GetAuthContext(ctx, "hash1")
	require.NoError(t, err)
	assert.Equal(t, authCtx.UserID, got.UserID)
	assert.True(t, authCtx.ExpiresAt.Equal(got.ExpiresAt))
	assert.LessOrEqual(t, mr.TTL(authCachePrefix+"hash1"), authCacheTTL)

	require.NoError(t, c.DeleteAuthContext(ctx, "hash1"))
	_, err = c.GetAuthContext(ctx, "hash1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestAuthContextCache_TTLBoundedBySessionExpiry(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	ctx := context.Background()

	authCtx := &model.AuthContext{UserID: "u1", ExpiresAt: time.Now().Add(30 * time.Second)}
	require.NoError(t, c.SetAuthContext(ctx, "hash2", authCtx))

	ttl := mr.TTL(authCachePrefix + "hash2")
	assert.LessOrEqual(t, ttl, 30*time.Second)
	assert.Greater(t, ttl, time.Duration(0))

	expired := &model.AuthContext{UserID: "u1", ExpiresAt: time.Now().Add(-time.Second)}
	require.NoError(t, c.SetAuthContext(ctx, "hash3", expired))
	assert.False(t, mr.Exists(authCachePrefix+"hash3"), "expired sessions are never cached")
}

func TestCheckUserRateLimit_ExhaustsBurst(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	ctx := context.Background()

	// One token per minute: refill during the test is negligible.
	for i := 0; i < 3; i++ {
		res, err := c.CheckUserRateLimit(ctx, "u1", 1, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i)
	}

	res, err := c.CheckUserRateLimit(ctx, "u1", 1, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)

	other, err := c.CheckUserRateLimit(ctx, "u2", 1, 3)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per user")
}

func TestCheckIPRateLimit_FirstRequest(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)

	res, err := c.CheckIPRateLimit(context.Background(), "203.0.113.7", 10, 20)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(19), res.Remaining)
	assert.True(t, mr.Exists(rateLimitIPPrefix+hashIP("203.0.113.7")), "IP is stored hashed")
}

func TestCheckUserRateLimit_Disabled(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	res, err := c.CheckUserRateLimit(context.Background(), "u1", 0, 5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheckRateLimit_FailsOpen(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t)
	mr.Close()

	res, err := c.CheckUserRateLimit(context.Background(), "u1", 60, 5)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Allowed)
}

func TestHashIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashIP(tt.ip)
			assert.Len(t, hash, 16)
			assert.Equal(t, hash, hashIP(tt.ip))
		})
	}

	assert.NotEqual(t, hashIP("10.0.0.1"), hashIP("10.0.0.2"))
}

func TestSearchKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "search:the matrix:1", searchKey(" The Matrix ", 1))
	assert.NotEqual(t, searchKey("matrix", 1), searchKey("matrix", 2))
}
