package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rogerio-castellano/cart-store/internal/cart"
	"github.com/rogerio-castellano/cart-store/internal/catalog"
	"github.com/rogerio-castellano/cart-store/internal/config"
	"github.com/rogerio-castellano/cart-store/internal/http/handlers"
	mw "github.com/rogerio-castellano/cart-store/internal/http/middleware"
	"github.com/rogerio-castellano/cart-store/internal/http/router"
	"github.com/rogerio-castellano/cart-store/internal/logging"
	"github.com/rogerio-castellano/cart-store/internal/session"
	"github.com/rogerio-castellano/cart-store/internal/storage"
	"go.uber.org/zap"
)

// @title Cart API
// @version 1.0
// @description Shopping cart backed by remote stock and a key-value store.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configFile := flag.String("config", "", "path to a config file (default ./cart.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("cart API stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeStorage, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()

	zero, err := cart.ParseZeroPolicy(cfg.Cart.ZeroAmountPolicy)
	if err != nil {
		return err
	}
	overStock, err := cart.ParseOverStockPolicy(cfg.Cart.OverStockPolicy)
	if err != nil {
		return err
	}

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		return errors.New("session.secret is required (CART_SESSION_SECRET)")
	}
	issuer, err := session.NewIssuer(secret, cfg.Session.TTL)
	if err != nil {
		return err
	}

	client := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithRateLimit(cfg.Catalog.RequestsPerSecond, cfg.Catalog.Burst),
		catalog.WithLogger(logger.Named("catalog")),
	)

	registry := session.NewRegistry(kv, client, cfg.Cart.Key,
		session.WithRegistryLogger(logger.Named("cart")),
		session.WithReconcileOnLoad(cfg.Cart.ReconcileOnCreate),
		session.WithIdleTTL(cfg.Cart.IdleTTL),
		session.WithCartOptions(
			cart.WithPolicy(cart.Policy{Zero: zero, OverStock: overStock}),
			cart.WithMaxAttempts(cfg.Cart.MaxAttempts),
		),
	)

	go registry.Run(ctx)

	var limiter *mw.RateLimiter
	if cfg.HTTP.RequestsPerSecond > 0 {
		limiter = mw.NewRateLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
		go limiter.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router.NewCartRouter(handlers.NewCartHandler(registry, issuer, logger), issuer, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cart API listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("catalog", cfg.Catalog.BaseURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
