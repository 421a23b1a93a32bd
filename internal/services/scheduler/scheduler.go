// Package services запускает сверку истёкших подписок по cron-расписанию.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
)

// Sweeper переводит просроченные подписки в expired.
type Sweeper interface {
	CheckExpiredSubscriptions(ctx context.Context) (int, error)
}

// SchedulerService периодически вызывает Sweeper.
type SchedulerService struct {
	sweeper Sweeper
	cron    *cron.Cron
	timeout time.Duration
	log     *slog.Logger
	running atomic.Bool
}

// NewSchedulerService регистрирует сверку по расписанию schedule
// (стандартный cron или дескрипторы вида "@every 10m").
func NewSchedulerService(sweeper Sweeper, schedule string, timeout time.Duration, log *slog.Logger) (*SchedulerService, error) {
	const op = "services.scheduler.NewSchedulerService"

	if timeout <= 0 {
		timeout = time.Minute
	}
	s := &SchedulerService{
		sweeper: sweeper,
		cron:    cron.New(),
		timeout: timeout,
		log:     log,
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}
	return s, nil
}

// Start запускает расписание.
func (s *SchedulerService) Start() {
	s.cron.Start()
	s.log.Info("expiry sweep scheduler started")
}

// Stop останавливает расписание и ждёт текущую сверку либо отмену ctx.
func (s *SchedulerService) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.log.Info("expiry sweep scheduler stopped")
}

// RunOnce выполняет одну сверку.
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	const op = "services.scheduler.RunOnce"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.sweeper.CheckExpiredSubscriptions(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", sl.Op(op), sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		s.log.Info("expired subscriptions marked", slog.Int("count", n))
	}
	return n, nil
}

func (s *SchedulerService) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("previous expiry sweep still running, skipping")
		return
	}
	defer s.running.Store(false)
	_, _ = s.RunOnce(context.Background())
}
