package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects serving counters for the HTTP surface. One instance is
// owned by the server and fed by its middleware; there is no global.
type Metrics struct {
	mu sync.Mutex

	// Counters
	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	// Route-specific metrics
	routeMetrics map[string]*RouteMetrics

	// Trailing window of request durations
	durations    []time.Duration
	maxDurations int
}

// RouteMetrics represents counters for a specific route.
type RouteMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		routeMetrics: make(map[string]*RouteMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordRequest records a request against a route.
func (m *Metrics) RecordRequest(route string) {
	m.requestTotal.Add(1)
	m.getRouteMetrics(route).requestCount.Add(1)
}

// RecordFailure records a failed request against a route.
func (m *Metrics) RecordFailure(route string) {
	m.requestFailed.Add(1)
	m.getRouteMetrics(route).errorCount.Add(1)
}

// RecordDuration records a request duration against a route.
func (m *Metrics) RecordDuration(route string, duration time.Duration) {
	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()

	m.getRouteMetrics(route).totalDuration.Add(duration.Milliseconds())
}

func (m *Metrics) getRouteMetrics(route string) *RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm, ok := m.routeMetrics[route]
	if !ok {
		rm = &RouteMetrics{}
		m.routeMetrics[route] = rm
	}
	return rm
}

// Snapshot returns a point-in-time copy of the collected counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make(map[string]*RouteMetricsSnapshot, len(m.routeMetrics))
	for route, rm := range m.routeMetrics {
		count := rm.requestCount.Load()
		snapshot := &RouteMetricsSnapshot{
			RequestCount: count,
			ErrorCount:   rm.errorCount.Load(),
		}
		if count > 0 {
			snapshot.AverageDurationMs = rm.totalDuration.Load() / count
		}
		routes[route] = snapshot
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		RouteMetrics:  routes,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                            `json:"request_total"`
	RequestFailed int64                            `json:"request_failed"`
	RouteMetrics  map[string]*RouteMetricsSnapshot `json:"routes"`
}

// RouteMetricsSnapshot represents counters for a specific route.
type RouteMetricsSnapshot struct {
	RequestCount      int64 `json:"request_count"`
	ErrorCount        int64 `json:"error_count"`
	AverageDurationMs int64 `json:"avg_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
