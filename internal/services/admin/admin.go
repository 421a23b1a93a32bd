// Package services реализует админ-панель: список подписок с email владельцев,
// сводную статистику и ручное управление подписками.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
)

// UnknownEmail подставляется, если владельца не удалось найти.
const UnknownEmail = "N/A"

const lookupLimit = 8

// Subscriptions операции хранилища подписок, нужные админ-панели.
type Subscriptions interface {
	GetAllSubscriptions(ctx context.Context) ([]models.Subscription, error)
	CreateSubscription(ctx context.Context, userUID string, plan models.PlanType, amount float64) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, userUID string, status models.Status) error
	RenewSubscription(ctx context.Context, userUID string, plan models.PlanType, amount float64) error
	CheckExpiredSubscriptions(ctx context.Context) (int, error)
}

// Users поиск владельца подписки.
type Users interface {
	UserByID(ctx context.Context, userUID string) (*models.User, error)
}

// Stats сводка по подпискам.
type Stats struct {
	Active  int     `json:"active"`
	Expired int     `json:"expired"`
	Revenue float64 `json:"revenue"`
}

// Overview содержимое админ-панели.
type Overview struct {
	Subscriptions []models.SubscriptionWithEmail `json:"subscriptions"`
	Stats         Stats                          `json:"stats"`
}

// Console админ-панель.
type Console struct {
	subs  Subscriptions
	users Users
	log   *slog.Logger
}

// NewConsole создаёт Console.
func NewConsole(subs Subscriptions, users Users, log *slog.Logger) *Console {
	return &Console{subs: subs, users: users, log: log}
}

// List возвращает все подписки с email владельцев и статистикой.
// Email ищутся параллельно, ошибка поиска даёт "N/A" и не прерывает список.
func (c *Console) List(ctx context.Context) (Overview, error) {
	const op = "services.admin.List"

	subs, err := c.subs.GetAllSubscriptions(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]models.SubscriptionWithEmail, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	for i, sub := range subs {
		rows[i] = models.SubscriptionWithEmail{Subscription: sub, Email: UnknownEmail}
		g.Go(func() error {
			user, err := c.users.UserByID(gctx, sub.UserUID)
			if err != nil {
				c.log.Warn("failed to resolve subscription owner",
					sl.Op(op), slog.String("user_uid", sub.UserUID), sl.Err(err))
				return nil
			}
			if user != nil && user.Email != "" {
				rows[i].Email = user.Email
			}
			return nil
		})
	}
	_ = g.Wait()

	return Overview{Subscriptions: rows, Stats: Summarize(subs)}, nil
}

// Summarize считает активные и истёкшие подписки и выручку по активным.
func Summarize(subs []models.Subscription) Stats {
	var st Stats
	for _, sub := range subs {
		switch sub.Status {
		case models.StatusActive:
			st.Active++
			st.Revenue += sub.Amount
		case models.StatusExpired:
			st.Expired++
		}
	}
	return st
}

// Create создаёт подписку пользователю.
func (c *Console) Create(ctx context.Context, userUID string, plan models.PlanType, amount float64) (*models.Subscription, error) {
	const op = "services.admin.Create"
	sub, err := c.subs.CreateSubscription(ctx, userUID, plan, amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ChangeStatus ручная смена статуса.
func (c *Console) ChangeStatus(ctx context.Context, userUID string, status models.Status) error {
	const op = "services.admin.ChangeStatus"
	if err := c.subs.UpdateSubscriptionStatus(ctx, userUID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Renew продление с новым планом и суммой.
func (c *Console) Renew(ctx context.Context, userUID string, plan models.PlanType, amount float64) error {
	const op = "services.admin.Renew"
	if err := c.subs.RenewSubscription(ctx, userUID, plan, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Sweep запускает сверку истёкших подписок вне расписания.
func (c *Console) Sweep(ctx context.Context) (int, error) {
	const op = "services.admin.Sweep"
	n, err := c.subs.CheckExpiredSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
