// Package scheduler собирает фоновую сверку истёкших подписок.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/evofit/internal/cache"
	"github.com/magabrotheeeer/evofit/internal/config"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	schedulerservices "github.com/magabrotheeeer/evofit/internal/services/scheduler"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservices.SchedulerService
	db               *storage.Storage
	cache            *cache.Cache
	logger           *slog.Logger
}

// waitForDB ждёт, пока схема будет создана сервисом с миграциями.
func waitForDB(ctx context.Context, db *storage.Storage) error {
	var err error
	for range dbReadyAttempts {
		if err = db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	a := &App{db: db, logger: logger}

	if err := waitForDB(ctx, db); err != nil {
		a.close()
		return nil, err
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	subscriptionService := subservices.NewSubscriptionService(db, a.cache, cfg.SubscriptionTTL, logger)
	a.schedulerService, err = schedulerservices.NewSchedulerService(subscriptionService, cfg.SweepSchedule, cfg.SweepTimeout, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// Run запускает планировщик и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.schedulerService.RunOnce(ctx); err != nil {
		a.logger.Error("initial expiry sweep failed", sl.Err(err))
	}
	a.schedulerService.Start()

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.schedulerService.Stop(stopCtx)

	a.close()
	return nil
}

func (a *App) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
