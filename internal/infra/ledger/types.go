package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"

	"swap_go/internal/domain"
	"swap_go/internal/event"
)

// Contract is the read surface of the escrow ledger. EthContract is the
// production implementation; tests substitute fakes.
type Contract interface {
	// OrderCount returns the exclusive upper bound of the assigned id range.
	OrderCount(ctx context.Context) (uint64, error)

	// ReadOrder reads one order slot. Never-created slots (zero maker)
	// return domain.ErrEmptySlot.
	ReadOrder(ctx context.Context, id uint64) (*domain.Order, error)

	// Constants reads the ledger-wide expiry and grace period settings.
	Constants(ctx context.Context) (domain.LedgerConstants, error)

	// WatchEvents decodes contract logs into events on sink until the
	// subscription is torn down. Per-order delivery order follows log order.
	WatchEvents(ctx context.Context, sink chan<- event.Event) (ethereum.Subscription, error)
}

// Numeric status enum as stored by the contract.
const (
	rawStatusActive uint8 = iota
	rawStatusFilled
	rawStatusCanceled
)

func mapStatus(raw uint8) (string, error) {
	switch raw {
	case rawStatusActive:
		return domain.OrderStatusActive, nil
	case rawStatusFilled:
		return domain.OrderStatusFilled, nil
	case rawStatusCanceled:
		return domain.OrderStatusCanceled, nil
	default:
		return "", fmt.Errorf("unknown ledger status %d", raw)
	}
}

// classify wraps provider errors into the engine's error taxonomy so the
// governor can decide between cooldown, backoff, and immediate propagation.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isRateLimited(err) {
		return &domain.RateLimitError{Op: op, Code: rateLimitCode(err), Err: err}
	}
	return domain.NewNetworkError(op, err)
}

// rpcError matches go-ethereum's JSON-RPC error interface without importing
// rpc at every call site.
type rpcError interface {
	Error() string
	ErrorCode() int
}

// -32005 is the conventional "limit exceeded" JSON-RPC code used by hosted
// providers; 429 shows up when the HTTP layer rejects first.
func rateLimitCode(err error) int {
	var re rpcError
	if errors.As(err, &re) {
		return re.ErrorCode()
	}
	return 0
}

func isRateLimited(err error) bool {
	if code := rateLimitCode(err); code == -32005 || code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429")
}
