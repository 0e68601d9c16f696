package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncMovieCacheHit(kind string)                  {}
func (n *NoopRecorder) IncMovieCacheMiss(kind string)                 {}
func (n *NoopRecorder) IncCatalogRequest(status string)               {}
func (n *NoopRecorder) ObserveCatalogDuration(duration time.Duration) {}
func (n *NoopRecorder) IncSignUp()                                    {}
func (n *NoopRecorder) IncSignIn(status string)                       {}
func (n *NoopRecorder) IncListCreated()                               {}
func (n *NoopRecorder) IncListUpdated()                               {}
func (n *NoopRecorder) IncListDeleted()                               {}
func (n *NoopRecorder) IncListMovieAdded()                            {}
func (n *NoopRecorder) IncListMovieRemoved()                          {}
func (n *NoopRecorder) IncMail(status string)                         {}
func (n *NoopRecorder) AddSessionsSwept(count int64)                  {}
