package handler

import (
	"fmt"
	"net/http"

	"github.com/reelist/reelist/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "reelist_movie_cache_hits_total{kind=\"detail\"} %d\n", snap.MovieCacheHits)
	writeMetric(w, "reelist_movie_cache_misses_total{kind=\"detail\"} %d\n", snap.MovieCacheMisses)
	writeMetric(w, "reelist_movie_cache_hits_total{kind=\"search\"} %d\n", snap.SearchCacheHits)
	writeMetric(w, "reelist_movie_cache_misses_total{kind=\"search\"} %d\n", snap.SearchCacheMisses)

	writeMetric(w, "reelist_catalog_requests_total{status=\"ok\"} %d\n", snap.CatalogOK)
	writeMetric(w, "reelist_catalog_requests_total{status=\"empty\"} %d\n", snap.CatalogEmpty)
	writeMetric(w, "reelist_catalog_requests_total{status=\"not_found\"} %d\n", snap.CatalogNotFound)
	writeMetric(w, "reelist_catalog_requests_total{status=\"error\"} %d\n", snap.CatalogErrors)
	writeMetric(w, "reelist_catalog_duration_seconds_count %d\n", snap.CatalogDurationCount)
	writeMetric(w, "reelist_catalog_duration_seconds_sum %.6f\n", float64(snap.CatalogDurationTotalNs)/1e9)

	writeMetric(w, "reelist_signups_total %d\n", snap.SignUps)
	writeMetric(w, "reelist_signins_total{status=\"success\"} %d\n", snap.SignInsSucceeded)
	writeMetric(w, "reelist_signins_total{status=\"failed\"} %d\n", snap.SignInsFailed)

	writeMetric(w, "reelist_lists_created_total %d\n", snap.ListsCreated)
	writeMetric(w, "reelist_lists_updated_total %d\n", snap.ListsUpdated)
	writeMetric(w, "reelist_lists_deleted_total %d\n", snap.ListsDeleted)
	writeMetric(w, "reelist_list_movies_added_total %d\n", snap.ListMoviesAdded)
	writeMetric(w, "reelist_list_movies_removed_total %d\n", snap.ListMoviesRemoved)

	writeMetric(w, "reelist_mail_total{status=\"sent\"} %d\n", snap.MailSent)
	writeMetric(w, "reelist_mail_total{status=\"failed\"} %d\n", snap.MailFailed)
	writeMetric(w, "reelist_mail_total{status=\"dropped\"} %d\n", snap.MailDropped)

	writeMetric(w, "reelist_sessions_swept_total %d\n", snap.SessionsSwept)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
