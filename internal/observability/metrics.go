// Package observability exposes the application's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDenialsTotal counts ownership-policy denials by entity kind.
	AuthzDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_authz_denials_total",
		Help: "Total number of write attempts denied by the ownership policy",
	}, []string{"entity"})

	// HiddenLookupsTotal counts reads of posts that exist but were masked as
	// not found by the visibility filter.
	HiddenLookupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_hidden_post_lookups_total",
		Help: "Total number of post lookups masked as not found by the visibility filter",
	})

	// FeedQueryLatency records feed query latency by feed kind.
	FeedQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_feed_query_latency_seconds",
		Help:    "Feed query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})
)

// ObserveFeedQuery records the latency of a feed query. Use with defer:
//
//	defer observability.ObserveFeedQuery("global", time.Now())
func ObserveFeedQuery(feed string, start time.Time) {
	FeedQueryLatency.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}
