package infra

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"swap_go/internal/domain"
)

func testGovernor(cfg GovernorConfig) *Governor {
	return NewGovernor(cfg, NewMetrics())
}

func TestGovernor_ConcurrencyCapAndSpacing(t *testing.T) {
	const (
		maxInFlight = 3
		minInterval = 20 * time.Millisecond
		callers     = 10
	)

	g := testGovernor(GovernorConfig{
		MaxInFlight: maxInFlight,
		MinInterval: minInterval,
		MaxAttempts: 1,
	})

	var (
		inFlight    atomic.Int32
		maxObserved atomic.Int32
		startMu     sync.Mutex
		starts      []time.Time
	)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Randomized arrival pattern
			time.Sleep(time.Duration(rand.Intn(8)) * time.Millisecond)

			err := g.Do(context.Background(), "op", func(ctx context.Context) error {
				n := inFlight.Add(1)
				for {
					cur := maxObserved.Load()
					if n <= cur || maxObserved.CompareAndSwap(cur, n) {
						break
					}
				}
				startMu.Lock()
				starts = append(starts, time.Now())
				startMu.Unlock()

				time.Sleep(2 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := maxObserved.Load(); got > maxInFlight {
		t.Errorf("observed %d concurrent operations, cap is %d", got, maxInFlight)
	}

	if len(starts) != callers {
		t.Fatalf("got %d starts, want %d", len(starts), callers)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		// Allow generous scheduler slack on the spacing check
		if gap < minInterval/2 {
			t.Fatalf("operations started %s apart, want at least %s", gap, minInterval)
		}
	}
}

func TestGovernor_RetriesThenSucceeds(t *testing.T) {
	g := testGovernor(GovernorConfig{
		MaxInFlight: 1,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})

	calls := 0
	err := g.Do(context.Background(), "flaky", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return domain.NewNetworkError("call", errors.New("timeout"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestGovernor_ExhaustsRetryBudget(t *testing.T) {
	g := testGovernor(GovernorConfig{
		MaxInFlight: 1,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})

	calls := 0
	wantErr := domain.NewNetworkError("call", errors.New("still down"))
	err := g.Do(context.Background(), "dead", func(ctx context.Context) error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("expected last error surfaced, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want exactly the 3-attempt budget", calls)
	}
}

func TestGovernor_NonRetriablePropagatesImmediately(t *testing.T) {
	g := testGovernor(GovernorConfig{
		MaxInFlight: 1,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	})

	calls := 0
	err := g.Do(context.Background(), "fatal", func(ctx context.Context) error {
		calls++
		return domain.ErrEmptySlot
	})

	if !errors.Is(err, domain.ErrEmptySlot) {
		t.Errorf("expected ErrEmptySlot, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, non-retriable errors must not be retried", calls)
	}
}

func TestGovernor_RateLimitCooldown(t *testing.T) {
	g := testGovernor(GovernorConfig{
		MaxInFlight:       1,
		MaxAttempts:       2,
		RateLimitCooldown: 3 * time.Millisecond,
		RateLimitRetries:  5,
		BaseDelay:         time.Millisecond,
	})

	calls := 0
	start := time.Now()
	err := g.Do(context.Background(), "limited", func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return &domain.RateLimitError{Op: "call", Code: 429, Err: errors.New("too many requests")}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("rate-limited operation should eventually succeed, got %v", err)
	}
	// Rate-limit waits must not consume the 2-attempt generic budget.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if elapsed := time.Since(start); elapsed < 9*time.Millisecond {
		t.Errorf("elapsed %s, want at least 3 cooldowns", elapsed)
	}
}

func TestGovernor_RateLimitBudgetExhausted(t *testing.T) {
	g := testGovernor(GovernorConfig{
		MaxInFlight:       1,
		MaxAttempts:       3,
		RateLimitCooldown: time.Millisecond,
		RateLimitRetries:  2,
	})

	calls := 0
	err := g.Do(context.Background(), "limited", func(ctx context.Context) error {
		calls++
		return &domain.RateLimitError{Op: "call", Err: errors.New("rate limit")}
	})

	if !domain.IsRateLimited(err) {
		t.Errorf("expected rate limit error surfaced, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want initial call plus 2 cooldown retries", calls)
	}
}

func TestGovernor_CancelWhileWaiting(t *testing.T) {
	g := testGovernor(GovernorConfig{
		MaxInFlight: 1,
		MinInterval: time.Millisecond,
		MaxAttempts: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())

	// Occupy the only slot
	release := make(chan struct{})
	go g.Do(context.Background(), "holder", func(ctx context.Context) error {
		<-release
		return nil
	})
	time.Sleep(5 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- g.Do(ctx, "blocked", func(ctx context.Context) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not unblock")
	}
	close(release)
}
