// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Movie cache metrics. kind is "detail" or "search".
	IncMovieCacheHit(kind string)
	IncMovieCacheMiss(kind string)

	// Catalog (OMDb) metrics
	IncCatalogRequest(status string) // status: "ok", "empty", "not_found", "error"
	ObserveCatalogDuration(duration time.Duration)

	// Account metrics
	IncSignUp()
	IncSignIn(status string) // status: "success" or "failed"

	// List management metrics
	IncListCreated()
	IncListUpdated()
	IncListDeleted()
	IncListMovieAdded()
	IncListMovieRemoved()

	// Background work
	IncMail(status string) // status: "sent", "failed", "dropped"
	AddSessionsSwept(n int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
