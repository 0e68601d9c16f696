package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	MovieCacheHits         uint64
	MovieCacheMisses       uint64
	SearchCacheHits        uint64
	SearchCacheMisses      uint64
	CatalogOK              uint64
	CatalogEmpty           uint64
	CatalogNotFound        uint64
	CatalogErrors          uint64
	CatalogDurationCount   uint64
	CatalogDurationTotalNs int64
	SignUps                uint64
	SignInsSucceeded       uint64
	SignInsFailed          uint64
	ListsCreated           uint64
	ListsUpdated           uint64
	ListsDeleted           uint64
	ListMoviesAdded        uint64
	ListMoviesRemoved      uint64
	MailSent               uint64
	MailFailed             uint64
	MailDropped            uint64
	SessionsSwept          int64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint.
type InMemoryRecorder struct {
	movieCacheHits         uint64
	movieCacheMisses       uint64
	searchCacheHits        uint64
	searchCacheMisses      uint64
	catalogOK              uint64
	catalogEmpty           uint64
	catalogNotFound        uint64
	catalogErrors          uint64
	catalogDurationCount   uint64
	catalogDurationTotalNs int64
	signUps                uint64
	signInsSucceeded       uint64
	signInsFailed          uint64
	listsCreated           uint64
	listsUpdated           uint64
	listsDeleted           uint64
	listMoviesAdded        uint64
	listMoviesRemoved      uint64
	mailSent               uint64
	mailFailed             uint64
	mailDropped            uint64
	sessionsSwept          int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		MovieCacheHits:         atomic.LoadUint64(&m.movieCacheHits),
		MovieCacheMisses:       atomic.LoadUint64(&m.movieCacheMisses),
		SearchCacheHits:        atomic.LoadUint64(&m.searchCacheHits),
		SearchCacheMisses:      atomic.LoadUint64(&m.searchCacheMisses),
		CatalogOK:              atomic.LoadUint64(&m.catalogOK),
		CatalogEmpty:           atomic.LoadUint64(&m.catalogEmpty),
		CatalogNotFound:        atomic.LoadUint64(&m.catalogNotFound),
		CatalogErrors:          atomic.LoadUint64(&m.catalogErrors),
		CatalogDurationCount:   atomic.LoadUint64(&m.catalogDurationCount),
		CatalogDurationTotalNs: atomic.LoadInt64(&m.catalogDurationTotalNs),
		SignUps:                atomic.LoadUint64(&m.signUps),
		SignInsSucceeded:       atomic.LoadUint64(&m.signInsSucceeded),
		SignInsFailed:          atomic.LoadUint64(&m.signInsFailed),
		ListsCreated:           atomic.LoadUint64(&m.listsCreated),
		ListsUpdated:           atomic.LoadUint64(&m.listsUpdated),
		ListsDeleted:           atomic.LoadUint64(&m.listsDeleted),
		ListMoviesAdded:        atomic.LoadUint64(&m.listMoviesAdded),
		ListMoviesRemoved:      atomic.LoadUint64(&m.listMoviesRemoved),
		MailSent:               atomic.LoadUint64(&m.mailSent),
		MailFailed:             atomic.LoadUint64(&m.mailFailed),
		MailDropped:            atomic.LoadUint64(&m.mailDropped),
		SessionsSwept:          atomic.LoadInt64(&m.sessionsSwept),
	}
}

// IncMovieCacheHit increments the cache hit counter for kind.
func (m *InMemoryRecorder) IncMovieCacheHit(kind string) {
	if kind == "search" {
		atomic.AddUint64(&m.searchCacheHits, 1)
		return
	}
	atomic.AddUint64(&m.movieCacheHits, 1)
}

// IncMovieCacheMiss increments the cache miss counter for kind.
func (m *InMemoryRecorder) IncMovieCacheMiss(kind string) {
	if kind == "search" {
		atomic.AddUint64(&m.searchCacheMisses, 1)
		return
	}
	atomic.AddUint64(&m.movieCacheMisses, 1)
}

// IncCatalogRequest counts a catalog response by outcome.
func (m *InMemoryRecorder) IncCatalogRequest(status string) {
	switch status {
	case "ok":
		atomic.AddUint64(&m.catalogOK, 1)
	case "empty":
		atomic.AddUint64(&m.catalogEmpty, 1)
	case "not_found":
		atomic.AddUint64(&m.catalogNotFound, 1)
	default:
		atomic.AddUint64(&m.catalogErrors, 1)
	}
}

// ObserveCatalogDuration records catalog round-trip time.
func (m *InMemoryRecorder) ObserveCatalogDuration(duration time.Duration) {
	atomic.AddUint64(&m.catalogDurationCount, 1)
	atomic.AddInt64(&m.catalogDurationTotalNs, duration.Nanoseconds())
}

// IncSignUp increments the sign-up counter.
func (m *InMemoryRecorder) IncSignUp() {
	atomic.AddUint64(&m.signUps, 1)
}

// IncSignIn counts a sign-in attempt.
func (m *InMemoryRecorder) IncSignIn(status string) {
	if status == "success" {
		atomic.AddUint64(&m.signInsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.signInsFailed, 1)
}

// IncListCreated increments list created counter.
func (m *InMemoryRecorder) IncListCreated() {
	atomic.AddUint64(&m.listsCreated, 1)
}

// IncListUpdated increments list updated counter.
func (m *InMemoryRecorder) IncListUpdated() {
	atomic.AddUint64(&m.listsUpdated, 1)
}

// IncListDeleted increments list deleted counter.
func (m *InMemoryRecorder) IncListDeleted() {
	atomic.AddUint64(&m.listsDeleted, 1)
}

// IncListMovieAdded increments the movie added counter.
func (m *InMemoryRecorder) IncListMovieAdded() {
	atomic.AddUint64(&m.listMoviesAdded, 1)
}

// IncListMovieRemoved increments the movie removed counter.
func (m *InMemoryRecorder) IncListMovieRemoved() {
	atomic.AddUint64(&m.listMoviesRemoved, 1)
}

// IncMail counts an outbound mail by outcome.
func (m *InMemoryRecorder) IncMail(status string) {
	switch status {
	case "sent":
		atomic.AddUint64(&m.mailSent, 1)
	case "dropped":
		atomic.AddUint64(&m.mailDropped, 1)
	default:
		atomic.AddUint64(&m.mailFailed, 1)
	}
}

// AddSessionsSwept adds n to the expired session counter.
func (m *InMemoryRecorder) AddSessionsSwept(n int64) {
	atomic.AddInt64(&m.sessionsSwept, n)
}
