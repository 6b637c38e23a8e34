package vector

import (
	"sync/atomic"
	"time"
)

// Metrics tracks index usage statistics.
type Metrics struct {
	startTime    time.Time
	totalQueries atomic.Int64
	totalAdds    atomic.Int64
	rebuilds     atomic.Int64
	queryLatency atomic.Int64 // sum in microseconds
	indexedCount atomic.Int64
}

// NewMetrics creates a metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// QueryTimer returns a func that records one query and its latency when
// called.
func (m *Metrics) QueryTimer() func() {
	start := time.Now()
	return func() {
		m.totalQueries.Add(1)
		m.queryLatency.Add(time.Since(start).Microseconds())
	}
}

// RecordAdd records one vector insertion.
func (m *Metrics) RecordAdd() {
	m.totalAdds.Add(1)
	m.indexedCount.Add(1)
}

// RecordRebuild records a full rebuild and the resulting index size.
func (m *Metrics) RecordRebuild(size int) {
	m.rebuilds.Add(1)
	m.indexedCount.Store(int64(size))
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	TotalQueries int64         `json:"total_queries"`
	TotalAdds    int64         `json:"total_adds"`
	Rebuilds     int64         `json:"rebuilds"`
	IndexedCount int64         `json:"indexed_count"`
	AvgLatency   time.Duration `json:"avg_latency"`
	Uptime       time.Duration `json:"uptime"`
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		TotalQueries: m.totalQueries.Load(),
		TotalAdds:    m.totalAdds.Load(),
		Rebuilds:     m.rebuilds.Load(),
		IndexedCount: m.indexedCount.Load(),
		Uptime:       time.Since(m.startTime),
	}
	if s.TotalQueries > 0 {
		s.AvgLatency = time.Duration(m.queryLatency.Load()/s.TotalQueries) * time.Microsecond
	}
	return s
}
