package service

import (
	"sort"
	"sync"
	"time"

	"swap_go/internal/domain"
	"swap_go/internal/event"
)

// OrderCache is the authoritative in-memory view of marketplace orders.
// The supervisor's apply loop is the single writer; readers get defensive
// clones so no consumer ever observes a half-applied mutation.
type OrderCache struct {
	mu     sync.RWMutex
	orders map[uint64]*domain.Order

	// nowFn stamps re-issued orders (RetryOrder carries no timestamp).
	// Overridable in tests.
	nowFn func() int64
}

// NewOrderCache creates an empty cache.
func NewOrderCache() *OrderCache {
	return &OrderCache{
		orders: make(map[uint64]*domain.Order),
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// ReplaceAll atomically discards the prior snapshot and installs orders as
// the new one. Readers observe either the old or the new snapshot, never a
// mix.
func (c *OrderCache) ReplaceAll(orders []*domain.Order) {
	next := make(map[uint64]*domain.Order, len(orders))
	for _, o := range orders {
		next[o.ID] = o
	}

	c.mu.Lock()
	c.orders = next
	c.mu.Unlock()
}

// ApplyEvent applies one ledger event and returns a clone of the affected
// record (for cleanup: the removed record). applied is false when the event
// had no effect: duplicate creation, unknown id, or a stale transition on an
// order already in a terminal status.
func (c *OrderCache) ApplyEvent(ev event.Event) (affected *domain.Order, applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case *event.OrderCreated:
		if _, exists := c.orders[e.OrderID]; exists {
			// Duplicate delivery; creation is idempotent.
			return nil, false
		}
		o := &domain.Order{
			ID:          e.OrderID,
			Maker:       e.Maker,
			Taker:       e.Taker,
			SellToken:   e.SellToken,
			BuyToken:    e.BuyToken,
			SellAmount:  e.SellAmount,
			BuyAmount:   e.BuyAmount,
			CreatedAt:   e.CreatedAt,
			Status:      domain.OrderStatusActive,
			CreationFee: e.CreationFee,
		}
		c.orders[o.ID] = o
		return o.Clone(), true

	case *event.OrderFilled:
		o, ok := c.orders[e.OrderID]
		if !ok || o.IsTerminal() {
			// Unknown id (arrived before resync) or stale transition.
			return nil, false
		}
		o.Status = domain.OrderStatusFilled
		if e.Taker != domain.AnyTaker {
			// Open-taker orders learn who filled them.
			o.Taker = e.Taker
		}
		return o.Clone(), true

	case *event.OrderCanceled:
		o, ok := c.orders[e.OrderID]
		if !ok || o.IsTerminal() {
			return nil, false
		}
		o.Status = domain.OrderStatusCanceled
		return o.Clone(), true

	case *event.OrderCleanedUp:
		o, ok := c.orders[e.OrderID]
		if !ok {
			return nil, false
		}
		delete(c.orders, e.OrderID)
		return o.Clone(), true

	case *event.RetryOrder:
		old, ok := c.orders[e.OrderID]
		if !ok {
			return nil, false
		}
		delete(c.orders, e.OrderID)

		// Same logical order under a new id: maker/tokens/amounts carry
		// forward, timestamps and retry count restart.
		reissued := old.Clone()
		reissued.ID = e.NewID
		reissued.RetryCount = e.RetryCount
		reissued.CreatedAt = c.nowFn()
		reissued.Status = domain.OrderStatusActive
		reissued.Deal = nil
		c.orders[e.NewID] = reissued
		return reissued.Clone(), true
	}

	return nil, false
}

// Get returns a clone of the order with the given id.
func (c *OrderCache) Get(id uint64) (*domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, ok := c.orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// List returns clones of all orders sorted by id. A non-empty status limits
// the result to that ledger status.
func (c *OrderCache) List(status string) []*domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*domain.Order, 0, len(c.orders))
	for _, o := range c.orders {
		if status != "" && o.Status != status {
			continue
		}
		result = append(result, o.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Remove bulk-deletes ids and returns how many were present.
func (c *OrderCache) Remove(ids []uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := c.orders[id]; ok {
			delete(c.orders, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached orders.
func (c *OrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

// UpdateDeal attaches recomputed deal metrics to the identified order.
// Identity fields are never touched.
func (c *OrderCache) UpdateDeal(id uint64, deal *domain.DealMetrics) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := c.orders[id]
	if !ok {
		return false
	}
	o.Deal = deal
	return true
}

// RecomputeDeals recalculates metrics for every cached order in one pass,
// used on price-feed refresh.
func (c *OrderCache) RecomputeDeals(compute func(*domain.Order) *domain.DealMetrics) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, o := range c.orders {
		o.Deal = compute(o)
	}
	return len(c.orders)
}
