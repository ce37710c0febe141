package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "networking_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "networking_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AnalysisJobsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "networking_analysis_jobs_enqueued_total",
			Help: "Total number of analysis jobs enqueued",
		},
	)

	AnalysisJobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "networking_analysis_jobs_finished_total",
			Help: "Total number of analysis jobs by final status",
		},
		[]string{"status"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "networking_analysis_duration_seconds",
			Help:    "Duration of interaction analysis in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"status"},
	)

	AnalysisWorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "networking_analysis_workers_active",
			Help: "Number of analysis jobs currently processing",
		},
	)

	SentimentCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "networking_analysis_sentiment_total",
			Help: "Stored analyses by sentiment display category",
		},
		[]string{"category"},
	)

	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "networking_sync_items_total",
			Help: "Google items processed by the sync by source and outcome",
		},
		[]string{"source", "outcome"},
	)
)

// EchoMiddleware records request count and latency per route template
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			HTTPRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			HTTPDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
