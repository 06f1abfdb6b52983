package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"

	"swap_go/internal/domain"
	"swap_go/internal/event"
	"swap_go/internal/infra"
)

// Gateway exposes typed ledger operations with every read routed through the
// request governor. It owns no order state; the cache does.
type Gateway struct {
	contract Contract
	governor *infra.Governor

	mu        sync.Mutex
	constants *domain.LedgerConstants
}

// NewGateway wraps contract with governed access.
func NewGateway(contract Contract, governor *infra.Governor) *Gateway {
	return &Gateway{
		contract: contract,
		governor: governor,
	}
}

// FetchConstants reads the ledger constants once and caches them for the
// session; they are immutable on the contract.
func (g *Gateway) FetchConstants(ctx context.Context) (domain.LedgerConstants, error) {
	g.mu.Lock()
	if g.constants != nil {
		c := *g.constants
		g.mu.Unlock()
		return c, nil
	}
	g.mu.Unlock()

	var consts domain.LedgerConstants
	err := g.governor.Do(ctx, "constants", func(ctx context.Context) error {
		var err error
		consts, err = g.contract.Constants(ctx)
		return err
	})
	if err != nil {
		return consts, err
	}

	g.mu.Lock()
	g.constants = &consts
	g.mu.Unlock()
	return consts, nil
}

// OrderCount returns the exclusive upper bound of the assigned id range.
func (g *Gateway) OrderCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := g.governor.Do(ctx, "order_count", func(ctx context.Context) error {
		var err error
		count, err = g.contract.OrderCount(ctx)
		return err
	})
	return count, err
}

// BulkLoad reads the contiguous id range [start, end) in batches of
// batchSize. Reads within a batch run concurrently; the governor enforces
// the in-flight cap and the spacing between batches. Empty slots (zero
// maker) are excluded silently; ids that stay unreadable after the retry
// budget are skipped and counted, never fatal. Context cancellation aborts
// the whole load.
func (g *Gateway) BulkLoad(ctx context.Context, start, end uint64, batchSize int) ([]*domain.Order, int, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	var (
		mu      sync.Mutex
		orders  []*domain.Order
		skipped int
	)

	for batchStart := start; batchStart < end; batchStart += uint64(batchSize) {
		batchEnd := batchStart + uint64(batchSize)
		if batchEnd > end {
			batchEnd = end
		}

		var wg sync.WaitGroup
		for id := batchStart; id < batchEnd; id++ {
			wg.Add(1)
			go func(id uint64) {
				defer wg.Done()

				var ord *domain.Order
				err := g.governor.Do(ctx, "read_order", func(ctx context.Context) error {
					var err error
					ord, err = g.contract.ReadOrder(ctx, id)
					return err
				})

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					orders = append(orders, ord)
				case errors.Is(err, domain.ErrEmptySlot):
					// Never-created slot, not a gap.
				case ctx.Err() != nil:
					// Cancellation is reported by the caller's check below.
				default:
					skipped++
					slog.Warn("Skipping unreadable order",
						slog.Uint64("id", id), slog.Any("error", err))
				}
			}(id)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, skipped, nil
}

// SubscribeLiveEvents arms the contract's push feed into sink. Arming counts
// as an outbound call and is governed like any other.
func (g *Gateway) SubscribeLiveEvents(ctx context.Context, sink chan<- event.Event) (ethereum.Subscription, error) {
	var sub ethereum.Subscription
	err := g.governor.Do(ctx, "subscribe_events", func(ctx context.Context) error {
		var err error
		sub, err = g.contract.WatchEvents(ctx, sink)
		return err
	})
	return sub, err
}
