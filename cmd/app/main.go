package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swap_go/internal/app"
	"swap_go/internal/engine"
	"swap_go/internal/event"
	"swap_go/internal/infra"
	"swap_go/internal/infra/ledger"
	"swap_go/internal/infra/pricefeed"
	"swap_go/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Token sync + event pool warmup
	bootstrap.SyncTokens(ctx)
	event.Warmup()

	// 5. Ledger contract client
	contract, err := ledger.DialEscrow(ctx, cfg.Ledger.RPCURL, cfg.Ledger.ContractAddress)
	if err != nil {
		slog.Error("Failed to dial escrow contract", slog.Any("error", err))
		os.Exit(1)
	}
	defer contract.Close()

	govCfg := infra.DefaultGovernorConfig()
	if cfg.Governor.MaxInFlight > 0 {
		govCfg.MaxInFlight = cfg.Governor.MaxInFlight
	}
	if cfg.Governor.MinIntervalMS > 0 {
		govCfg.MinInterval = time.Duration(cfg.Governor.MinIntervalMS) * time.Millisecond
	}
	if cfg.Governor.MaxAttempts > 0 {
		govCfg.MaxAttempts = cfg.Governor.MaxAttempts
	}
	if cfg.Governor.RateLimitCooldownMS > 0 {
		govCfg.RateLimitCooldown = time.Duration(cfg.Governor.RateLimitCooldownMS) * time.Millisecond
	}
	if cfg.Governor.RateLimitRetries > 0 {
		govCfg.RateLimitRetries = cfg.Governor.RateLimitRetries
	}
	governor := infra.NewGovernor(govCfg, bootstrap.Metrics)
	gateway := ledger.NewGateway(contract, governor)

	// 6. Engine wiring: cache, hub, price feed, supervisor
	cache := service.NewOrderCache()
	hub := event.NewHub()

	supCfg := engine.DefaultConfig()
	supCfg.RangeStart = cfg.Ledger.RangeStart
	supCfg.BatchSize = cfg.Ledger.BatchSize
	if cfg.Supervisor.MaxReconnectAttempts > 0 {
		supCfg.MaxReconnectAttempts = cfg.Supervisor.MaxReconnectAttempts
	}
	if cfg.Supervisor.BaseDelaySec > 0 {
		supCfg.BaseDelay = time.Duration(cfg.Supervisor.BaseDelaySec) * time.Second
	}
	if cfg.Supervisor.MaxDelaySec > 0 {
		supCfg.MaxDelay = time.Duration(cfg.Supervisor.MaxDelaySec) * time.Second
	}

	var supervisor *engine.Supervisor
	feed := pricefeed.NewWorker(cfg.PriceFeed.WSURL, bootstrap.Registry.Addresses(), func() {
		supervisor.OnPriceRefresh()
	})
	calc := service.NewDealCalculator(bootstrap.Registry, feed)

	supervisor = engine.NewSupervisor(supCfg, engine.Deps{
		Gateway: gateway,
		Cache:   cache,
		Calc:    calc,
		Hub:     hub,
		Metrics: bootstrap.Metrics,
		Alerts:  infra.NewAlertNotifier(cfg.Alert.WebhookURL),
		Store:   bootstrap.Storage,
	})

	hub.Subscribe(event.TopicSyncComplete, func(payload interface{}) {
		if r, ok := payload.(engine.SyncResult); ok {
			slog.Info("Order cache resynchronized",
				slog.Int("orders", r.Orders), slog.Int("skipped", r.Skipped))
		}
	})

	// 7. Start workers
	if cfg.PriceFeed.WSURL != "" {
		if err := feed.Connect(ctx); err != nil {
			slog.Error("Failed to connect price feed", slog.Any("error", err))
		}
		defer feed.Disconnect()
		slog.InfoContext(ctx, "Price feed worker started", slog.Int("tokens", len(bootstrap.Registry.All())))
	}

	if err := supervisor.Start(ctx); err != nil {
		slog.Error("Failed to start supervisor", slog.Any("error", err))
		os.Exit(1)
	}
	defer supervisor.Stop()

	slog.InfoContext(ctx, "Swap Go sync engine operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "Shutting down gracefully...")
}
