package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	remoteDuration     *prometheus.HistogramVec
	remoteFailures     *prometheus.CounterVec
	toggles            *prometheus.CounterVec
	listRefreshes      *prometheus.CounterVec
	summaryRefreshErrs prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	remoteCount          uint64
	remoteFailureCount   uint64
	remoteDurationTotal  uint64
	togglesApplied       uint64
	togglesRefused       uint64
	refreshCount         uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calendar_remote_call_duration_seconds",
		Help:    "Duration of calls to the calendar service",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_remote_call_failures_total",
		Help: "Calls to the calendar service that failed or were canceled",
	}, []string{"operation", "reason"})

	toggles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_toggles_total",
		Help: "RSVP toggle attempts by outcome",
	}, []string{"outcome"})

	listRefreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_list_refreshes_total",
		Help: "Full event list refetches by result",
	}, []string{"result"})

	summaryRefreshErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rsvp_followup_refresh_errors_total",
		Help: "Summary or roster refetches that failed after a toggle",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remoteDuration, remoteFailures, toggles, listRefreshes, summaryRefreshErrs, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		remoteDuration:     remoteDuration,
		remoteFailures:     remoteFailures,
		toggles:            toggles,
		listRefreshes:      listRefreshes,
		summaryRefreshErrs: summaryRefreshErrs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveRemoteCall implements clients.RemoteObserver.
func (m *MetricsService) ObserveRemoteCall(operation string, status int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(operation, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.remoteCount, 1)
	atomic.AddUint64(&m.remoteDurationTotal, uint64(duration.Nanoseconds()))
	if err != nil {
		reason := "error"
		if appErrors.IsCanceled(err) {
			reason = "canceled"
		}
		m.remoteFailures.WithLabelValues(operation, reason).Inc()
		atomic.AddUint64(&m.remoteFailureCount, 1)
	}
}

// RecordToggle counts an RSVP toggle by outcome ("applied", "failed",
// "no_actor", "busy").
func (m *MetricsService) RecordToggle(outcome string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(outcome).Inc()
	switch outcome {
	case toggleApplied:
		atomic.AddUint64(&m.togglesApplied, 1)
	case dto.RefusedNoActor, dto.RefusedBusy:
		atomic.AddUint64(&m.togglesRefused, 1)
	}
}

// RecordFollowupRefreshError counts a swallowed summary/roster refetch failure.
func (m *MetricsService) RecordFollowupRefreshError() {
	if m == nil {
		return
	}
	m.summaryRefreshErrs.Inc()
}

// RecordListRefresh counts a full event list refetch.
func (m *MetricsService) RecordListRefresh(result string) {
	if m == nil {
		return
	}
	m.listRefreshes.WithLabelValues(result).Inc()
	atomic.AddUint64(&m.refreshCount, 1)
}

// Snapshot returns aggregated metrics for the system endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	remote := atomic.LoadUint64(&m.remoteCount)
	remoteDuration := atomic.LoadUint64(&m.remoteDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgRemoteMs float64
	if remote > 0 {
		avgRemoteMs = float64(remoteDuration) / float64(remote) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:             requests,
		AverageRequestDurationMs:  avgRequestMs,
		RemoteCallsTotal:          remote,
		RemoteFailuresTotal:       atomic.LoadUint64(&m.remoteFailureCount),
		AverageRemoteCallDuration: avgRemoteMs,
		TogglesApplied:            atomic.LoadUint64(&m.togglesApplied),
		TogglesRefused:            atomic.LoadUint64(&m.togglesRefused),
		ListRefreshes:             atomic.LoadUint64(&m.refreshCount),
		Goroutines:                runtime.NumGoroutine(),
		GeneratedAt:               time.Now().UTC(),
	}
}
