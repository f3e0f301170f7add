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

	"github.com/rogerio-castellano/cart-store/internal/config"
	"github.com/rogerio-castellano/cart-store/internal/db"
	"github.com/rogerio-castellano/cart-store/internal/http/handlers"
	"github.com/rogerio-castellano/cart-store/internal/http/router"
	"github.com/rogerio-castellano/cart-store/internal/logging"
	"github.com/rogerio-castellano/cart-store/internal/repo"
	"go.uber.org/zap"
)

// @title Catalog API
// @version 1.0
// @description Products and stock consulted by the cart.
// @host localhost:3333
// @BasePath /
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

	if err := run(cfg.Catalog, logger); err != nil {
		logger.Fatal("catalog API stopped", zap.Error(err))
	}
}

func run(cfg config.CatalogConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers.SetLogger(logger)

	switch cfg.Driver {
	case "postgres":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		inventory := repo.NewPostgresInventoryRepository(database)
		if err := inventory.Migrate(ctx); err != nil {
			return err
		}
		handlers.SetInventoryRepo(inventory)
	default:
		handlers.SetInventoryRepo(repo.NewInMemoryInventoryRepository())
	}

	if cfg.SeedFile != "" {
		if err := seed(cfg.SeedFile, logger); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.NewCatalogRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("catalog API listening", zap.String("addr", cfg.Addr), zap.String("driver", cfg.Driver))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seed imports the CSV, updating products that already exist so restarts
// against Postgres pick up edits to the file.
func seed(path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := handlers.ImportCSV(f, true)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		logger.Warn("seed row rejected", zap.String("file", path), zap.String("error", e.Description))
	}
	logger.Info("catalog seeded", zap.String("file", path), zap.Int("imported", result.ImportedProductsCount))
	return nil
}
