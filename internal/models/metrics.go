package models

import "time"

// SystemMetrics is a lightweight snapshot of gateway instrumentation.
type SystemMetrics struct {
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	RemoteCallsTotal          uint64    `json:"remote_calls_total"`
	RemoteFailuresTotal       uint64    `json:"remote_failures_total"`
	AverageRemoteCallDuration float64   `json:"average_remote_call_duration_ms"`
	TogglesApplied            uint64    `json:"toggles_applied"`
	TogglesRefused            uint64    `json:"toggles_refused"`
	ListRefreshes             uint64    `json:"list_refreshes"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}
