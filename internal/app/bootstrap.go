package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swap_go/internal/domain"
	"swap_go/internal/infra"
	"swap_go/internal/infra/storage"
	"swap_go/internal/service"
)

// Bootstrap orchestrates the engine startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Storage  *storage.Storage
	Registry *service.TokenRegistry
	Metrics  *infra.Metrics
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB)
func (b *Bootstrap) Initialize() error {
	slog.Info("Bootstrapping Swap Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("Database initialized")

	// 4. Token registry
	b.Registry = service.NewTokenRegistry(store)
	if err := b.Registry.Load(); err != nil {
		return err
	}

	b.Metrics = infra.NewMetrics()
	return nil
}

// SyncTokens upserts the configured marketplace tokens into the registry in
// the background. Registry rows missing from the config keep their stored
// metadata.
func (b *Bootstrap) SyncTokens(ctx context.Context) {
	slog.Info("Starting token synchronization...")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent upserts

	for _, seed := range b.Config.Tokens {
		wg.Add(1)
		go func(seed infra.TokenSeed) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			token := &domain.TokenInfo{
				Address:      common.HexToAddress(seed.Address).Hex(),
				Symbol:       seed.Symbol,
				Name:         seed.Name,
				Decimals:     seed.Decimals,
				IsActive:     true,
				LastSyncedAt: time.Now(),
				UpdatedAt:    time.Now(),
			}
			if token.Name == "" {
				token.Name = token.Symbol
			}

			if err := b.Registry.Put(token); err != nil {
				slog.Error("Failed to upsert token",
					slog.String("symbol", seed.Symbol), slog.Any("error", err))
			}
		}(seed)
	}

	wg.Wait()
	slog.Info("Token synchronization completed", slog.Int("tokens", len(b.Registry.All())))
}
