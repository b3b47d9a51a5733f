package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verist/shopcore/internal/config"
	"github.com/verist/shopcore/internal/events"
	"github.com/verist/shopcore/internal/gateway"
	"github.com/verist/shopcore/internal/httpapi"
	"github.com/verist/shopcore/internal/port"
	"github.com/verist/shopcore/internal/repository"
	"github.com/verist/shopcore/internal/service"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("shopcore exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return err
	}

	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var publisher port.EventPublisher = events.Nop{}
	if cfg.RabbitURL != "" {
		rabbit, err := events.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange, logger)
		if err != nil {
			return err
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayToken, cfg.GatewayTimeout)

	uow := repository.NewUnitOfWork(pool)
	idem := repository.NewIdempotency(pool)

	checkout := service.NewCheckout(uow, idem, gatewayClient, publisher, service.CheckoutConfig{
		ShippingFee:       cfg.ShippingFee,
		FreeShippingUnits: cfg.FreeShippingUnits,
		Currency:          unit,
	}, logger)

	reconciler := service.NewReconciler(uow, idem, gatewayClient, publisher,
		cfg.WebhookSecret, cfg.AmountTolerance, logger)

	admin := service.NewAdmin(uow, publisher, logger)

	cart := service.NewCartService(repository.NewCart(pool), repository.NewProduct(pool), logger)

	router := httpapi.NewRouter(checkout, cart, reconciler, admin, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
