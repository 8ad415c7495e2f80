// SPDX-License-Identifier: MIT

// Package metrics exposes the daemon's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliptrim_uploads_total",
		Help: "Upload requests by result (accepted, rejected, failed)",
	}, []string{"result"})

	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cliptrim_upload_bytes_total",
		Help: "Total bytes accepted through uploads",
	})

	trimJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliptrim_trim_jobs_total",
		Help: "Trim jobs by result (success, validation, failure)",
	}, []string{"result"})

	trimDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cliptrim_trim_duration_seconds",
		Help:    "Wall-clock duration of complete trim jobs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	trimSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cliptrim_trim_segments",
		Help:    "Number of segments per trim job",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})

	streamedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cliptrim_streamed_bytes_total",
		Help: "Total bytes delivered by the range streamer",
	})

	rangeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliptrim_range_requests_total",
		Help: "Stream requests by mode (full, partial, fallback)",
	}, []string{"mode"})

	listProbeSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cliptrim_list_probe_skips_total",
		Help: "Files excluded from listings because probing failed",
	})
)

// IncUpload records one upload request outcome.
func IncUpload(result string) {
	uploadsTotal.WithLabelValues(result).Inc()
}

// AddUploadBytes records the size of an accepted upload.
func AddUploadBytes(n int64) {
	uploadBytes.Add(float64(n))
}

// ObserveTrim records one completed trim job.
func ObserveTrim(result string, segments int, elapsed time.Duration) {
	trimJobsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		trimDuration.Observe(elapsed.Seconds())
		trimSegments.Observe(float64(segments))
	}
}

// AddStreamedBytes records bytes delivered to a streaming client.
func AddStreamedBytes(n int64) {
	streamedBytes.Add(float64(n))
}

// IncRangeRequest records one stream request by serving mode.
func IncRangeRequest(mode string) {
	rangeRequests.WithLabelValues(mode).Inc()
}

// IncListProbeSkip records a file silently excluded from a listing.
func IncListProbeSkip() {
	listProbeSkips.Inc()
}
