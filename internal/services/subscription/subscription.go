// Package services содержит бизнес-логику подписок: проверку статуса,
// создание, продление, смену статуса и сверку истёкших подписок
// с кешированием снимков в Redis.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/metrics"
	"github.com/magabrotheeeer/evofit/internal/models"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

var (
	// ErrSubscriptionNotFound у пользователя нет подписки.
	ErrSubscriptionNotFound = storage.ErrSubscriptionNotFound
	// ErrInvalidStatus неизвестный статус подписки.
	ErrInvalidStatus = errors.New("invalid subscription status")
	// ErrInvalidPlan неизвестный тип плана.
	ErrInvalidPlan = errors.New("invalid plan type")
	// ErrInvalidAmount отрицательная сумма.
	ErrInvalidAmount = errors.New("invalid amount")
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, userUID string, status models.Status, now time.Time) error
	RenewSubscription(ctx context.Context, sub models.Subscription) error
	ListAllSubscriptions(ctx context.Context) ([]models.Subscription, error)
	ExpireSubscriptions(ctx context.Context, now time.Time) ([]string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша по ключам.
	Invalidate(ctx context.Context, keys ...string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo     SubscriptionRepository
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService. cache может быть nil.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, cacheTTL time.Duration, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// Now текущее время по часам сервиса.
func (s *SubscriptionService) Now() time.Time {
	return s.now()
}

func cacheKey(userUID string) string {
	return "subscription:user:" + userUID
}

// CheckSubscriptionStatus true, только если подписка пользователя активна и не истекла.
// Любая ошибка хранилища трактуется как отсутствие доступа.
func (s *SubscriptionService) CheckSubscriptionStatus(ctx context.Context, userUID string) bool {
	return s.CheckStatus(ctx, userUID).Allowed(FailClosed)
}

// CheckStatus отличает "точно неактивна" от "статус неизвестен из-за сбоя хранилища".
func (s *SubscriptionService) CheckStatus(ctx context.Context, userUID string) StatusResult {
	const op = "services.subscription.CheckStatus"

	sub, err := s.lookup(ctx, userUID)
	switch {
	case errors.Is(err, storage.ErrSubscriptionNotFound):
		return StatusResult{State: StateInactive}
	case err != nil:
		s.log.Error("failed to check subscription status", sl.Op(op),
			slog.String("user_uid", userUID), sl.Err(err))
		return StatusResult{State: StateUnknown, Err: err}
	case sub.IsUsable(s.now()):
		return StatusResult{State: StateActive, Subscription: sub}
	default:
		return StatusResult{State: StateInactive, Subscription: sub}
	}
}

// GetUserSubscription возвращает подписку пользователя или nil, если её нет.
func (s *SubscriptionService) GetUserSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "services.subscription.GetUserSubscription"

	sub, err := s.lookup(ctx, userUID)
	if errors.Is(err, storage.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CreateSubscription создаёт активную подписку с датой оплаты сейчас.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, userUID string, plan models.PlanType, amount float64) (*models.Subscription, error) {
	const op = "services.subscription.CreateSubscription"

	if err := validatePayment(plan, amount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	created, err := s.repo.CreateSubscription(ctx, models.Subscription{
		UserUID:     userUID,
		PlanType:    plan,
		Status:      models.StatusActive,
		PaymentDate: &now,
		ExpiryDate:  plan.ExpiryFrom(now),
		Amount:      amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.Error("failed to create subscription", sl.Op(op), slog.String("user_uid", userUID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userUID)
	s.log.Info("created new subscription", slog.String("user_uid", userUID), slog.String("plan", string(plan)))
	return created, nil
}

// UpdateSubscriptionStatus выставляет статус подписке пользователя.
func (s *SubscriptionService) UpdateSubscriptionStatus(ctx context.Context, userUID string, status models.Status) error {
	const op = "services.subscription.UpdateSubscriptionStatus"

	if !status.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateSubscriptionStatus(ctx, userUID, status, s.now()); err != nil {
		s.log.Error("failed to update subscription status", sl.Op(op), slog.String("user_uid", userUID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userUID)
	s.log.Info("updated subscription status", slog.String("user_uid", userUID), slog.String("status", string(status)))
	return nil
}

// RenewSubscription продлевает подписку от текущего момента и всегда делает её активной.
func (s *SubscriptionService) RenewSubscription(ctx context.Context, userUID string, plan models.PlanType, amount float64) error {
	const op = "services.subscription.RenewSubscription"

	if err := validatePayment(plan, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	err := s.repo.RenewSubscription(ctx, models.Subscription{
		UserUID:     userUID,
		PlanType:    plan,
		Status:      models.StatusActive,
		PaymentDate: &now,
		ExpiryDate:  plan.ExpiryFrom(now),
		Amount:      amount,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.Error("failed to renew subscription", sl.Op(op), slog.String("user_uid", userUID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userUID)
	s.log.Info("renewed subscription", slog.String("user_uid", userUID), slog.String("plan", string(plan)))
	return nil
}

// GetAllSubscriptions возвращает все подписки, новые первыми.
func (s *SubscriptionService) GetAllSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	const op = "services.subscription.GetAllSubscriptions"

	subs, err := s.repo.ListAllSubscriptions(ctx)
	if err != nil {
		s.log.Error("failed to list subscriptions", sl.Op(op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// CheckExpiredSubscriptions переводит активные подписки с прошедшей датой окончания в expired
// и возвращает количество затронутых записей.
func (s *SubscriptionService) CheckExpiredSubscriptions(ctx context.Context) (int, error) {
	const op = "services.subscription.CheckExpiredSubscriptions"

	users, err := s.repo.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		s.log.Error("failed to expire subscriptions", sl.Op(op), sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(users) > 0 {
		s.invalidate(ctx, users...)
		metrics.SubscriptionsExpiredTotal.Add(float64(len(users)))
	}
	s.log.Info("expired subscriptions swept", slog.Int("count", len(users)))
	return len(users), nil
}

func (s *SubscriptionService) lookup(ctx context.Context, userUID string) (*models.Subscription, error) {
	key := cacheKey(userUID)
	if s.cache != nil {
		var cached models.Subscription
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read subscription from cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	sub, err := s.repo.GetSubscriptionByUserUID(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, sub, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache subscription", slog.String("key", key), sl.Err(err))
		}
	}
	return sub, nil
}

func (s *SubscriptionService) invalidate(ctx context.Context, userUIDs ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userUIDs))
	for _, uid := range userUIDs {
		keys = append(keys, cacheKey(uid))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.Int("keys", len(keys)), sl.Err(err))
	}
}

func validatePayment(plan models.PlanType, amount float64) error {
	if !plan.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
