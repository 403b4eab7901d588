package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikolayk812/wardrobe/internal/api"
	"github.com/nikolayk812/wardrobe/internal/config"
	"github.com/nikolayk812/wardrobe/internal/db"
	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/logging"
	"github.com/nikolayk812/wardrobe/internal/payment"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/nikolayk812/wardrobe/internal/repository"
	"github.com/nikolayk812/wardrobe/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBSource)
	if err != nil {
		return fmt.Errorf("db.NewPool: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}

	gateway, err := buildPaymentGateway(cfg.Payment, cfg.Fees)
	if err != nil {
		return err
	}

	fees := domain.FeeSchedule{PlatformRate: cfg.Fees.PlatformRate, PaymentRate: cfg.Fees.PaymentRate}

	listingService, err := service.NewListingService(repository.NewListing(pool), logger)
	if err != nil {
		return fmt.Errorf("service.NewListingService: %w", err)
	}

	transactionService, err := service.NewTransactionService(
		repository.NewTxRunner(pool),
		repository.NewTransaction(pool),
		gateway,
		fees,
		logger,
		service.WithNoopStatusEvents(cfg.RecordNoopStatusEvents),
	)
	if err != nil {
		return fmt.Errorf("service.NewTransactionService: %w", err)
	}

	socialService, err := service.NewSocialService(repository.NewSocial(pool), logger)
	if err != nil {
		return fmt.Errorf("service.NewSocialService: %w", err)
	}

	handler := api.NewHandler(logger, listingService, transactionService, socialService)
	srv := api.NewServer(logger, cfg.HTTP, api.NewRouter(logger, handler, pool))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("srv.Start: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

func buildPaymentGateway(cfg config.PaymentConfig, fees config.FeesConfig) (port.PaymentGateway, error) {
	switch cfg.Provider {
	case config.PaymentProviderHTTP:
		gateway, err := payment.NewHTTPGateway(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("payment.NewHTTPGateway: %w", err)
		}
		return gateway, nil
	default:
		var opts []payment.SandboxOption
		if cfg.DeclineAbove != nil {
			opts = append(opts, payment.WithDeclineAbove(*cfg.DeclineAbove))
		}
		return payment.NewSandbox(fees.PaymentRate, opts...), nil
	}
}
