package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swap_go/internal/domain"
	"swap_go/internal/event"
	"swap_go/internal/infra"
	"swap_go/internal/infra/ledger"
	"swap_go/internal/infra/storage"
	"swap_go/internal/service"
)

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSyncing
	StateLive
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateSyncing:
		return "SYNCING"
	case StateLive:
		return "LIVE"
	case StateReconnecting:
		return "RECONNECTING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// SyncResult is the payload of the sync-complete notification. Skipped > 0
// means the cache is intentionally partial (skip-and-continue), which is a
// detectable state, not an error.
type SyncResult struct {
	Orders   int           `json:"orders"`
	Skipped  int           `json:"skipped"`
	RangeEnd uint64        `json:"range_end"`
	Took     time.Duration `json:"took"`
}

// ConnectionError is the payload of the terminal connection-error
// notification, emitted once when the reconnection ceiling is reached.
type ConnectionError struct {
	Attempts int   `json:"attempts"`
	Err      error `json:"-"`
}

// Config tunes the supervisor.
type Config struct {
	RangeStart           uint64
	BatchSize            int
	InboxSize            int
	MaxReconnectAttempts int
	BaseDelay            time.Duration
	MaxDelay             time.Duration
}

// DefaultConfig returns the stock supervisor settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:            50,
		InboxSize:            1024,
		MaxReconnectAttempts: 10,
		BaseDelay:            1 * time.Second,
		MaxDelay:             60 * time.Second,
	}
}

// Deps are the supervisor's collaborators. Store is optional; everything
// else is required.
type Deps struct {
	Gateway *ledger.Gateway
	Cache   *service.OrderCache
	Calc    *service.DealCalculator
	Hub     *event.Hub
	Metrics *infra.Metrics
	Alerts  *infra.AlertNotifier
	Store   *storage.Storage
}

// Supervisor drives the order synchronization lifecycle: connect, bulk
// resync, live streaming, and reconnection with backoff. Its apply loop is
// the only writer of the order cache, so live events and price refreshes
// are serialized by construction.
type Supervisor struct {
	cfg     Config
	gateway *ledger.Gateway
	cache   *service.OrderCache
	calc    *service.DealCalculator
	hub     *event.Hub
	metrics *infra.Metrics
	alerts  *infra.AlertNotifier
	store   *storage.Storage

	state  atomic.Int32
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// priceKick coalesces price-feed refresh notifications. Ledger events
	// are never coalesced; only the recompute trigger is.
	priceKick chan struct{}

	constMu   sync.RWMutex
	constants domain.LedgerConstants
}

// NewSupervisor creates a supervisor in the Disconnected state.
func NewSupervisor(cfg Config, deps Deps) *Supervisor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1024
	}
	if deps.Metrics == nil {
		deps.Metrics = infra.NewMetrics()
	}

	return &Supervisor{
		cfg:       cfg,
		gateway:   deps.Gateway,
		cache:     deps.Cache,
		calc:      deps.Calc,
		hub:       deps.Hub,
		metrics:   deps.Metrics,
		alerts:    deps.Alerts,
		store:     deps.Store,
		priceKick: make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		slog.Info("Connection state changed",
			slog.String("from", prev.String()), slog.String("to", next.String()))
	}
}

// Constants returns the ledger constants for the current session. Zero until
// the first successful sync.
func (s *Supervisor) Constants() domain.LedgerConstants {
	s.constMu.RLock()
	defer s.constMu.RUnlock()
	return s.constants
}

// Hub exposes the notification hub to consumers.
func (s *Supervisor) Hub() *event.Hub {
	return s.hub
}

// Start begins the lifecycle. Valid only from Disconnected or Failed.
func (s *Supervisor) Start(ctx context.Context) error {
	st := s.State()
	if st != StateDisconnected && st != StateFailed {
		return fmt.Errorf("cannot start from state %s", st)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.setState(StateConnecting)
	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop tears down the live feed and returns to Disconnected from any state.
// Once it returns, no in-flight operation can mutate the cache anymore.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.setState(StateDisconnected)
}

// OnPriceRefresh schedules a bulk deal-metric recompute on the apply loop.
// Safe to call from any goroutine; bursts coalesce into one recompute.
func (s *Supervisor) OnPriceRefresh() {
	select {
	case s.priceKick <- struct{}{}:
	default:
	}
}

func (s *Supervisor) run(ctx context.Context) {
	defer s.wg.Done()

	attempts := 0
	for {
		reachedLive, err := s.syncAndStream(ctx)
		if ctx.Err() != nil {
			return
		}
		if reachedLive {
			attempts = 0
		}

		attempts++
		s.metrics.RecordReconnect()
		if attempts > s.cfg.MaxReconnectAttempts {
			s.setState(StateFailed)
			slog.Error("Reconnection ceiling reached, giving up",
				slog.Int("attempts", attempts-1), slog.Any("error", err))
			s.hub.Publish(event.TopicConnectionErr, ConnectionError{Attempts: attempts - 1, Err: err})
			s.alerts.Notify(ctx, "connection failed",
				fmt.Sprintf("order sync gave up after %d reconnection attempts: %v", attempts-1, err))
			return
		}

		s.setState(StateReconnecting)
		delay := infra.CalculateBackoffWith(s.cfg.BaseDelay, s.cfg.MaxDelay, attempts-1)
		slog.Warn("Resyncing after connection loss",
			slog.Int("attempt", attempts), slog.Duration("delay", delay), slog.Any("error", err))
		if infra.SleepContext(ctx, delay) != nil {
			return
		}
	}
}

// syncAndStream performs one full session: constants, bulk resync, live
// streaming. reachedLive reports whether the session made it to Live (which
// resets the reconnect budget).
func (s *Supervisor) syncAndStream(ctx context.Context) (reachedLive bool, err error) {
	s.setState(StateSyncing)

	consts, err := s.gateway.FetchConstants(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch constants: %w", err)
	}
	s.constMu.Lock()
	s.constants = consts
	s.constMu.Unlock()

	count, err := s.gateway.OrderCount(ctx)
	if err != nil {
		return false, fmt.Errorf("order count: %w", err)
	}

	started := time.Now()
	orders, skipped, err := s.gateway.BulkLoad(ctx, s.cfg.RangeStart, count, s.cfg.BatchSize)
	if err != nil {
		return false, fmt.Errorf("bulk load: %w", err)
	}

	for _, o := range orders {
		o.Deal = s.calc.Compute(o)
	}
	s.cache.ReplaceAll(orders)
	s.metrics.RecordResync()
	s.metrics.SetCachedOrders(int64(len(orders)))

	inbox := make(chan event.Event, s.cfg.InboxSize)
	sub, err := s.gateway.SubscribeLiveEvents(ctx, inbox)
	if err != nil {
		return false, fmt.Errorf("subscribe live events: %w", err)
	}
	defer sub.Unsubscribe()

	s.setState(StateLive)
	result := SyncResult{
		Orders:   len(orders),
		Skipped:  skipped,
		RangeEnd: count,
		Took:     time.Since(started),
	}
	slog.Info("Sync complete",
		slog.Int("orders", result.Orders), slog.Int("skipped", result.Skipped),
		slog.Uint64("range_end", result.RangeEnd), slog.Duration("took", result.Took))
	s.hub.Publish(event.TopicSyncComplete, result)
	s.saveSyncMeta(result)

	// Apply loop: the cache's single writer.
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case err := <-sub.Err():
			return true, fmt.Errorf("live feed lost: %w", err)
		case ev := <-inbox:
			s.applyEvent(ev)
		case <-s.priceKick:
			n := s.cache.RecomputeDeals(s.calc.Compute)
			s.hub.Publish(event.TopicOrdersUpdated, n)
		}
	}
}

func (s *Supervisor) applyEvent(ev event.Event) {
	defer event.Release(ev)

	affected, applied := s.cache.ApplyEvent(ev)
	if !applied {
		// Data-integrity gap (unknown id, duplicate, stale transition):
		// resolved as a no-op, never escalated.
		s.metrics.RecordEventDropped()
		slog.Debug("Ledger event dropped",
			slog.String("kind", ev.GetKind().String()), slog.Uint64("order_id", ev.GetOrderID()))
		return
	}

	switch ev.GetKind() {
	case event.EvOrderCreated, event.EvRetryOrder:
		deal := s.calc.Compute(affected)
		s.cache.UpdateDeal(affected.ID, deal)
		affected.Deal = deal
	}

	s.metrics.RecordEventApplied()
	s.metrics.SetCachedOrders(int64(s.cache.Len()))
	s.hub.Publish(topicFor(ev.GetKind()), affected)
}

func topicFor(k event.Kind) string {
	switch k {
	case event.EvOrderCreated:
		return event.TopicOrderCreated
	case event.EvOrderFilled:
		return event.TopicOrderFilled
	case event.EvOrderCanceled:
		return event.TopicOrderCanceled
	case event.EvOrderCleanedUp:
		return event.TopicOrderCleanedUp
	case event.EvRetryOrder:
		return event.TopicOrderRetried
	default:
		return event.TopicOrdersUpdated
	}
}

func (s *Supervisor) saveSyncMeta(result SyncResult) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveLastSync(result.Orders, time.Now()); err != nil {
		slog.Warn("Failed to persist sync metadata", slog.Any("error", err))
	}
}

// ======================================================================================
// Query facade (consumed by the UI layer)
// ======================================================================================

// Orders returns cached orders with attached deal metrics, optionally
// filtered by ledger status.
func (s *Supervisor) Orders(status string) []*domain.Order {
	return s.cache.List(status)
}

// Order returns one cached order by id.
func (s *Supervisor) Order(id uint64) (*domain.Order, bool) {
	return s.cache.Get(id)
}

// CanFillOrder reports whether account may fill the order right now.
func (s *Supervisor) CanFillOrder(o *domain.Order, account common.Address) bool {
	return o.CanFill(account, time.Now().Unix(), s.Constants())
}

// CanCancelOrder reports whether account may cancel the order right now.
func (s *Supervisor) CanCancelOrder(o *domain.Order, account common.Address) bool {
	return o.CanCancel(account, time.Now().Unix(), s.Constants())
}

// OrderStatus returns the display status for the order, deriving Expired
// from the session constants.
func (s *Supervisor) OrderStatus(o *domain.Order) string {
	return o.DisplayStatus(time.Now().Unix(), s.Constants())
}
