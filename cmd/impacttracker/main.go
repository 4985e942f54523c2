// Package main запускает HTTP-сервер трекера пожертвований.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/impact-tracker/internal/config"
	"github.com/mmeshcher/impact-tracker/internal/handler"
	"github.com/mmeshcher/impact-tracker/internal/impact"
	"github.com/mmeshcher/impact-tracker/internal/repository"
	"github.com/mmeshcher/impact-tracker/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	store, err := newStore(cfg)
	if err != nil {
		sugar.Fatalw("state store initialization error", "error", err.Error())
	}

	tracker := service.NewTracker(impact.NewCalculator(cfg.Rates), store, cfg.PublicURL, logger)
	defer tracker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker.Hydrate(ctx, cfg.ShareState)

	h := handler.NewHandler(tracker, logger)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting impact tracker server", "addr", cfg.RunAddress, "shareBase", cfg.PublicURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newStore(cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURI != "" {
		return repository.NewPostgresStore(cfg.DatabaseURI)
	}
	return repository.NewFileStore(cfg.StateDir)
}
