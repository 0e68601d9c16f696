// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/reelist/reelist/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table. Migrations must already be applied.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `TRUNCATE sessions, lists, users CASCADE`); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// UniqueEmail generates an address no other test will use.
func UniqueEmail(local string) string {
	return strings.ToLower(fmt.Sprintf("%s.%d.%d@example.com", local, time.Now().UnixNano(), seq.Add(1)))
}

// NewTestUser creates a test user with sensible defaults.
// The password hash is a placeholder and will not verify.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		Username:     model.UsernameFromEmail(email),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		ListIDs:      []string{},
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestList creates a public test list owned by ownerID.
func NewTestList(t testing.TB, ownerID, name string, movies ...string) *model.List {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	if movies == nil {
		movies = []string{}
	}
	return &model.List{
		ID:         ulid.Make().String(),
		OwnerID:    ownerID,
		Name:       name,
		Visibility: model.VisibilityPublic,
		Movies:     movies,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewTestSession creates a session for userID that expires after ttl.
func NewTestSession(t testing.TB, userID, prefix string, ttl time.Duration) *model.Session {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Session{
		ID:          ulid.Make().String(),
		UserID:      userID,
		TokenHash:   "hash-" + prefix,
		TokenPrefix: prefix,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
}
