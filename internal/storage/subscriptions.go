package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/evofit/internal/models"
)

const subscriptionColumns = `id, user_uid, plan_type, status, payment_date,
	expiry_date, amount, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub         models.Subscription
		paymentDate sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.PlanType, &sub.Status, &paymentDate,
		&sub.ExpiryDate, &sub.Amount, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if paymentDate.Valid {
		sub.PaymentDate = &paymentDate.Time
	}
	return &sub, nil
}

// GetSubscriptionByUserUID возвращает самую свежую подписку пользователя.
func (s *Storage) GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUserUID"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CreateSubscription вставляет новую подписку и возвращает сохранённую запись.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"

	query := `INSERT INTO subscriptions (user_uid, plan_type, status, payment_date,
			      expiry_date, amount, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.PlanType, sub.Status, sub.PaymentDate,
		sub.ExpiryDate, sub.Amount, sub.CreatedAt, sub.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateSubscriptionStatus выставляет статус всем подпискам пользователя.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, userUID string, status models.Status, now time.Time) error {
	const op = "storage.UpdateSubscriptionStatus"

	query := `UPDATE subscriptions
			  SET status = $1, updated_at = $2
			  WHERE user_uid = $3`
	res, err := s.DB.ExecContext(ctx, query, status, now, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return checkAffected(op, res)
}

// RenewSubscription продлевает подписку: статус active, новые план, сумма, даты оплаты и окончания.
func (s *Storage) RenewSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.RenewSubscription"

	query := `UPDATE subscriptions
			  SET plan_type = $1, status = $2, payment_date = $3,
			      expiry_date = $4, amount = $5, updated_at = $6
			  WHERE user_uid = $7`
	res, err := s.DB.ExecContext(ctx, query,
		sub.PlanType, models.StatusActive, sub.PaymentDate,
		sub.ExpiryDate, sub.Amount, sub.UpdatedAt, sub.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return checkAffected(op, res)
}

// ListAllSubscriptions возвращает все подписки, новые первыми.
func (s *Storage) ListAllSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	const op = "storage.ListAllSubscriptions"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireSubscriptions переводит активные подписки с истёкшей датой в expired
// и возвращает UID затронутых пользователей.
func (s *Storage) ExpireSubscriptions(ctx context.Context, now time.Time) ([]string, error) {
	const op = "storage.ExpireSubscriptions"

	query := `UPDATE subscriptions
			  SET status = $1, updated_at = $2
			  WHERE status = $3 AND expiry_date < $2
			  RETURNING user_uid`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusExpired, now, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var users []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, uid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func checkAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
