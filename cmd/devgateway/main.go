// Command devgateway runs the local development stand-in for the shop API:
// method catalogues, the checkout endpoint and the simulated mobile money
// payment bridge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mykejnr/oscarshop/internal/gateway"
	"github.com/mykejnr/oscarshop/internal/platform/config"
	"github.com/mykejnr/oscarshop/internal/platform/idempotency"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("devgateway")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	catalogue, err := gateway.LoadCatalogue(cfg.Gateway.CataloguePath)
	if err != nil {
		logger.Fatal("failed to load catalogue", zap.Error(err))
	}

	store := idempotency.NewMemoryStore()
	server, err := gateway.NewServer(gateway.ServerDeps{
		Logger:         logger,
		Catalogue:      catalogue,
		Idempotency:    store,
		IdempotencyTTL: cfg.Gateway.IdempotencyTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialise gateway", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cleanupWG sync.WaitGroup
	cleanupWG.Add(1)
	go func() {
		defer cleanupWG.Done()
		ticker := time.NewTicker(idempotencyCleanupInterval)
		defer ticker.Stop()
		cleanupLogger := logger.Named("idempotency")
		for {
			select {
			case <-ticker.C:
				removed, err := store.CleanupExpired(ctx, time.Now().UTC(), 0)
				if err != nil {
					cleanupLogger.Error("cleanup error", zap.Error(err))
					continue
				}
				if removed > 0 {
					cleanupLogger.Info("cleanup removed records", zap.Int("count", removed))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	addr := ":" + cfg.Gateway.Port
	logger.Info("devgateway listening",
		zap.String("addr", addr),
		zap.Int("shipping_methods", len(catalogue.Shipping)),
		zap.Int("payment_methods", len(catalogue.Payment)),
	)

	if err := server.Run(ctx, addr, cfg.Gateway.ReadTimeout, cfg.Gateway.WriteTimeout, cfg.Gateway.IdleTimeout); err != nil {
		logger.Error("gateway stopped with error", zap.Error(err))
	}

	cleanupWG.Wait()
	logger.Info("devgateway stopped")
}
