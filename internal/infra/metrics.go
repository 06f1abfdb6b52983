package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight engine observability without external
// dependencies. Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ledgerRequests atomic.Uint64
	ledgerRetries  atomic.Uint64
	rateLimitHits  atomic.Uint64
	eventsApplied  atomic.Uint64
	eventsDropped  atomic.Uint64
	resyncs        atomic.Uint64
	reconnects     atomic.Uint64

	// Latency tracking for governed requests
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	cachedOrders atomic.Int64
}

// NewMetrics creates a zeroed metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest records one governed ledger/price request with its latency.
func (m *Metrics) RecordRequest(latencyNs int64) {
	m.ledgerRequests.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordRetry records a generic retry of a governed request.
func (m *Metrics) RecordRetry() {
	m.ledgerRetries.Add(1)
}

// RecordRateLimitHit records a provider rate-limit response.
func (m *Metrics) RecordRateLimitHit() {
	m.rateLimitHits.Add(1)
}

// RecordEventApplied records one live event applied to the cache.
func (m *Metrics) RecordEventApplied() {
	m.eventsApplied.Add(1)
}

// RecordEventDropped records a live event discarded without cache effect.
func (m *Metrics) RecordEventDropped() {
	m.eventsDropped.Add(1)
}

// RecordResync records a completed bulk resynchronization.
func (m *Metrics) RecordResync() {
	m.resyncs.Add(1)
}

// RecordReconnect records one reconnection attempt.
func (m *Metrics) RecordReconnect() {
	m.reconnects.Add(1)
}

// SetCachedOrders sets the current cache size gauge.
func (m *Metrics) SetCachedOrders(n int64) {
	m.cachedOrders.Store(n)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	LedgerRequests uint64
	LedgerRetries  uint64
	RateLimitHits  uint64
	EventsApplied  uint64
	EventsDropped  uint64
	Resyncs        uint64
	Reconnects     uint64
	AvgLatencyNs   int64
	CachedOrders   int64
	Timestamp      time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avg int64
	if count := m.latencyCount.Load(); count > 0 {
		avg = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		LedgerRequests: m.ledgerRequests.Load(),
		LedgerRetries:  m.ledgerRetries.Load(),
		RateLimitHits:  m.rateLimitHits.Load(),
		EventsApplied:  m.eventsApplied.Load(),
		EventsDropped:  m.eventsDropped.Load(),
		Resyncs:        m.resyncs.Load(),
		Reconnects:     m.reconnects.Load(),
		AvgLatencyNs:   avg,
		CachedOrders:   m.cachedOrders.Load(),
		Timestamp:      time.Now(),
	}
}
