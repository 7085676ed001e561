package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfextract",
			Name:      "runs_total",
			Help:      "Extraction runs by outcome (success or error kind)",
		},
		[]string{"result"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfextract",
			Name:      "run_duration_seconds",
			Help:      "End to end duration of extraction runs",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	serviceReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfextract",
			Name:      "service_requests_total",
			Help:      "PDF Services HTTP calls by step and status class",
		},
		[]string{"step", "status"},
	)

	serviceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfextract",
			Name:      "service_request_duration_seconds",
			Help:      "Duration of PDF Services HTTP calls by step",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	uploadPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfextract",
			Name:      "upload_pages",
			Help:      "Page count of uploaded PDFs",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	archiveBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfextract",
			Name:      "archive_bytes",
			Help:      "Size of persisted extraction archives",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	registerOnce sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(runsTotal, runDuration, serviceReqs, serviceLatency, uploadPages, archiveBytes)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveRun(result string, dur time.Duration) {
	runsTotal.WithLabelValues(result).Inc()
	runDuration.Observe(dur.Seconds())
}

func ObserveServiceCall(step string, status int, dur time.Duration) {
	serviceReqs.WithLabelValues(step, statusClass(status)).Inc()
	serviceLatency.WithLabelValues(step).Observe(dur.Seconds())
}

func ObservePages(n int)          { uploadPages.Observe(float64(n)) }
func ObserveArchiveBytes(n int64) { archiveBytes.Observe(float64(n)) }

func statusClass(code int) string {
	switch {
	case code == 0:
		return "transport_error"
	case code == 429:
		return "429"
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
