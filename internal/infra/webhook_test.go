package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAlertNotifier(t *testing.T) {
	received := make(chan alertPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p alertPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- p
	}))
	defer srv.Close()

	n := NewAlertNotifier(srv.URL)
	n.Notify(context.Background(), "connection failed", "gave up after 10 attempts")

	select {
	case p := <-received:
		if p.Subject != "connection failed" {
			t.Errorf("subject = %q", p.Subject)
		}
		if p.Detail != "gave up after 10 attempts" {
			t.Errorf("detail = %q", p.Detail)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never called")
	}
}

func TestAlertNotifierDisabled(t *testing.T) {
	// Neither a nil notifier nor an empty URL may panic or block.
	var n *AlertNotifier
	n.Notify(context.Background(), "s", "d")

	NewAlertNotifier("").Notify(context.Background(), "s", "d")
}

func TestAlertNotifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Delivery failures are logged, never surfaced.
	NewAlertNotifier(srv.URL).Notify(context.Background(), "s", "d")
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest(int64(10 * time.Millisecond))
	m.RecordRequest(int64(30 * time.Millisecond))
	m.RecordRetry()
	m.RecordRateLimitHit()
	m.RecordEventApplied()
	m.RecordEventDropped()
	m.RecordResync()
	m.RecordReconnect()
	m.SetCachedOrders(7)

	s := m.Snapshot()
	if s.LedgerRequests != 2 {
		t.Errorf("requests = %d, want 2", s.LedgerRequests)
	}
	if s.LedgerRetries != 1 || s.RateLimitHits != 1 {
		t.Errorf("retries = %d, rate limit hits = %d", s.LedgerRetries, s.RateLimitHits)
	}
	if s.EventsApplied != 1 || s.EventsDropped != 1 {
		t.Errorf("applied = %d, dropped = %d", s.EventsApplied, s.EventsDropped)
	}
	if s.Resyncs != 1 || s.Reconnects != 1 {
		t.Errorf("resyncs = %d, reconnects = %d", s.Resyncs, s.Reconnects)
	}
	if s.CachedOrders != 7 {
		t.Errorf("cached orders = %d, want 7", s.CachedOrders)
	}
	if s.AvgLatencyNs != int64(20*time.Millisecond) {
		t.Errorf("avg latency = %dns, want 20ms", s.AvgLatencyNs)
	}
}
