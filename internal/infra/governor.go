package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"swap_go/internal/domain"
)

// GovernorConfig tunes the request governor.
type GovernorConfig struct {
	MaxInFlight       int           // concurrent outstanding operations
	MinInterval       time.Duration // minimum spacing between operation starts
	MaxAttempts       int           // generic retry budget per operation
	RateLimitCooldown time.Duration // fixed wait after a rate-limit response
	RateLimitRetries  int           // cap on cooldown waits per operation
	BaseDelay         time.Duration // generic retry backoff base
	MaxDelay          time.Duration // generic retry backoff cap
}

// DefaultGovernorConfig returns conservative provider-friendly defaults.
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		MaxInFlight:       4,
		MinInterval:       200 * time.Millisecond,
		MaxAttempts:       3,
		RateLimitCooldown: 2 * time.Second,
		RateLimitRetries:  5,
		BaseDelay:         1 * time.Second,
		MaxDelay:          60 * time.Second,
	}
}

// Governor throttles and retries every outbound read against the ledger and
// the price feed. It enforces a cap on concurrently in-flight operations and
// a minimum interval between operation starts; excess callers block until
// both are satisfied. It knows nothing about orders.
//
// Retry policy: rate-limit-class errors (domain.IsRateLimited) wait a fixed
// cooldown without consuming the generic budget, up to RateLimitRetries.
// Other retriable errors back off exponentially and give up after
// MaxAttempts, surfacing the last error. Non-retriable errors propagate
// immediately.
type Governor struct {
	cfg     GovernorConfig
	slots   chan struct{}
	metrics *Metrics

	paceMu sync.Mutex
	nextAt time.Time
}

// NewGovernor creates a governor. A nil metrics registry is replaced with a
// private one so call sites never need nil checks.
func NewGovernor(cfg GovernorConfig, metrics *Metrics) *Governor {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Governor{
		cfg:     cfg,
		slots:   make(chan struct{}, cfg.MaxInFlight),
		metrics: metrics,
	}
}

// Do runs op under the governor's policy. It blocks until an in-flight slot
// and the minimum spacing are both available, then retries per policy.
// Context cancellation aborts waiting and retrying immediately.
func (g *Governor) Do(ctx context.Context, name string, op func(context.Context) error) error {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slots }()

	attempts := 0
	cooldowns := 0
	for {
		if err := g.pace(ctx); err != nil {
			return err
		}

		start := time.Now()
		err := op(ctx)
		g.metrics.RecordRequest(time.Since(start).Nanoseconds())
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		if domain.IsRateLimited(err) {
			cooldowns++
			g.metrics.RecordRateLimitHit()
			if cooldowns > g.cfg.RateLimitRetries {
				slog.Warn("Rate limit cooldown budget exhausted",
					slog.String("op", name), slog.Int("cooldowns", cooldowns-1))
				return err
			}
			slog.Debug("Rate limited, cooling down",
				slog.String("op", name), slog.Duration("cooldown", g.cfg.RateLimitCooldown))
			if serr := SleepContext(ctx, g.cfg.RateLimitCooldown); serr != nil {
				return serr
			}
			continue
		}

		if !domain.IsRetriable(err) {
			return err
		}

		attempts++
		if attempts >= g.cfg.MaxAttempts {
			return err
		}
		delay := CalculateBackoffWith(g.cfg.BaseDelay, g.cfg.MaxDelay, attempts-1)
		g.metrics.RecordRetry()
		slog.Debug("Retrying governed operation",
			slog.String("op", name), slog.Int("attempt", attempts), slog.Duration("delay", delay))
		if serr := SleepContext(ctx, delay); serr != nil {
			return serr
		}
	}
}

// pace reserves the next start timeslot and sleeps until it arrives.
// Reserving before sleeping keeps concurrent callers spaced FIFO-ish instead
// of stampeding when the previous slot frees up.
func (g *Governor) pace(ctx context.Context) error {
	if g.cfg.MinInterval <= 0 {
		return ctx.Err()
	}

	g.paceMu.Lock()
	now := time.Now()
	at := g.nextAt
	if at.Before(now) {
		at = now
	}
	g.nextAt = at.Add(g.cfg.MinInterval)
	g.paceMu.Unlock()

	return SleepContext(ctx, time.Until(at))
}
