package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reelist/reelist/internal/cache"
	"github.com/reelist/reelist/internal/mailer"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/omdb"
	"github.com/reelist/reelist/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory AccountStore and ListStore.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	sessions map[string]*model.Session
	lists    map[string]*model.List
	touched  chan string
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
		lists:    make(map[string]*model.List),
		touched:  make(chan string, 16),
	}
}

func (m *memStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	cp.ListIDs = slices.Clone(u.ListIDs)
	return &cp, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) CreateSession(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) GetActiveSessionsByPrefix(ctx context.Context, prefix string, now time.Time) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Session
	for _, s := range m.sessions {
		if s.TokenPrefix == prefix && s.IsActive(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) RevokeSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return repository.ErrSessionNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (m *memStore) TouchSession(ctx context.Context, id string) error {
	select {
	case m.touched <- id:
	default:
	}
	return nil
}

func (m *memStore) CreateList(ctx context.Context, list *model.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[list.OwnerID]
	if !ok {
		return repository.ErrUserNotFound
	}
	cp := *list
	cp.Movies = slices.Clone(list.Movies)
	m.lists[list.ID] = &cp
	u.ListIDs = append(u.ListIDs, list.ID)
	return nil
}

func (m *memStore) GetListByID(ctx context.Context, id string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[id]
	if !ok {
		return nil, repository.ErrListNotFound
	}
	cp := *l
	cp.Movies = slices.Clone(l.Movies)
	return &cp, nil
}

func (m *memStore) ListLists(ctx context.Context, f repository.ListFilter, cursor string, limit int) ([]*model.List, string, error) {
	if cursor == "bogus" {
		return nil, "", repository.ErrInvalidCursor
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.List
	for _, l := range m.lists {
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		if f.Visibility != "" && l.Visibility != f.Visibility {
			continue
		}
		if f.Name != "" && l.Name != f.Name {
			continue
		}
		if f.VisibleTo != "" && !l.VisibleTo(f.VisibleTo) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = "more"
	}
	return out, next, nil
}

func (m *memStore) UpdateList(ctx context.Context, list *model.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[list.ID]
	if !ok {
		return repository.ErrListNotFound
	}
	l.Name = list.Name
	l.Visibility = list.Visibility
	return nil
}

func (m *memStore) DeleteList(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[id]
	if !ok {
		return repository.ErrListNotFound
	}
	delete(m.lists, id)
	if u, ok := m.users[l.OwnerID]; ok {
		u.ListIDs = slices.DeleteFunc(u.ListIDs, func(s string) bool { return s == id })
	}
	return nil
}

func (m *memStore) AddMovieToList(ctx context.Context, listID, movieID string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[listID]
	if !ok {
		return nil, repository.ErrListNotFound
	}
	if !l.HasMovie(movieID) {
		l.Movies = append(l.Movies, movieID)
	}
	cp := *l
	cp.Movies = slices.Clone(l.Movies)
	return &cp, nil
}

func (m *memStore) RemoveMovieFromList(ctx context.Context, listID, movieID string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[listID]
	if !ok {
		return nil, repository.ErrListNotFound
	}
	l.Movies = slices.DeleteFunc(l.Movies, func(s string) bool { return s == movieID })
	cp := *l
	cp.Movies = slices.Clone(l.Movies)
	return &cp, nil
}

// memAuthCache is an in-memory AuthCache.
type memAuthCache struct {
	mu      sync.Mutex
	entries map[string]*model.AuthContext
	err     error
}

func newMemAuthCache() *memAuthCache {
	return &memAuthCache{entries: make(map[string]*model.AuthContext)}
}

func (c *memAuthCache) GetAuthContext(ctx context.Context, key string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	a, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return a, nil
}

func (c *memAuthCache) SetAuthContext(ctx context.Context, key string, a *model.AuthContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = a
	return nil
}

func (c *memAuthCache) DeleteAuthContext(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memAuthCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// memMailQueue records enqueued mail.
type memMailQueue struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (q *memMailQueue) Enqueue(msg mailer.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
}

// fakeCatalog serves canned movies and counts calls.
type fakeCatalog struct {
	mu          sync.Mutex
	movies      map[string]*model.Movie
	failing     map[string]bool
	searchCalls int
	movieCalls  int
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func newFakeCatalog(ids ...string) *fakeCatalog {
	c := &fakeCatalog{movies: make(map[string]*model.Movie), failing: make(map[string]bool)}
	for _, id := range ids {
		c.movies[id] = &model.Movie{IMDbID: id, Title: "Title " + id}
	}
	return c
}

func (c *fakeCatalog) Search(ctx context.Context, query string, page int) (*model.SearchResult, error) {
	c.mu.Lock()
	c.searchCalls++
	c.mu.Unlock()
	if strings.Contains(query, "boom") {
		return nil, omdb.ErrUpstream
	}
	result := &model.SearchResult{Query: query, Page: page, Movies: []model.MovieSummary{}}
	for id, m := range c.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(query)) {
			result.Movies = append(result.Movies, model.MovieSummary{IMDbID: id, Title: m.Title})
		}
	}
	result.TotalResults = len(result.Movies)
	return result, nil
}

func (c *fakeCatalog) Movie(ctx context.Context, id string) (*model.Movie, error) {
	c.mu.Lock()
	c.movieCalls++
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing[id] {
		return nil, errors.New("upstream timeout")
	}
	m, ok := c.movies[id]
	if !ok {
		return nil, omdb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// memMovieCache is an in-memory MovieCache.
type memMovieCache struct {
	mu       sync.Mutex
	movies   map[string]*model.Movie
	missing  map[string]bool
	searches map[string]*model.SearchResult
}

func newMemMovieCache() *memMovieCache {
	return &memMovieCache{
		movies:   make(map[string]*model.Movie),
		missing:  make(map[string]bool),
		searches: make(map[string]*model.SearchResult),
	}
}

func (c *memMovieCache) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.movies[id]; ok {
		return m, nil
	}
	return nil, cache.ErrCacheMiss
}

func (c *memMovieCache) SetMovie(ctx context.Context, m *model.Movie) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movies[m.IMDbID] = m
	delete(c.missing, m.IMDbID)
	return nil
}

func (c *memMovieCache) SetMovieNotFound(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing[id] = true
	return nil
}

func (c *memMovieCache) IsMovieNotFound(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missing[id], nil
}

func (c *memMovieCache) GetSearch(ctx context.Context, query string, page int) (*model.SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.searches[fmt.Sprintf("%s:%d", strings.ToLower(query), page)]; ok {
		return r, nil
	}
	return nil, cache.ErrCacheMiss
}

func (c *memMovieCache) SetSearch(ctx context.Context, r *model.SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches[fmt.Sprintf("%s:%d", strings.ToLower(r.Query), r.Page)] = r
	return nil
}
