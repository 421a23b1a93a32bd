package models

import (
	"math"
	"time"
)

// PlanType период оплаты подписки.
type PlanType string

const (
	PlanMonthly PlanType = "monthly"
	PlanYearly  PlanType = "yearly"
)

// Valid сообщает, известен ли тип плана.
func (p PlanType) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// ExpiryFrom возвращает дату окончания периода, отсчитанную от from:
// плюс один календарный месяц для monthly и плюс один календарный год для yearly.
func (p PlanType) ExpiryFrom(from time.Time) time.Time {
	if p == PlanMonthly {
		return from.AddDate(0, 1, 0)
	}
	return from.AddDate(1, 0, 0)
}

// Status состояние подписки.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
	StatusPending  Status = "pending"
)

// Valid сообщает, известен ли статус.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusExpired, StatusPending:
		return true
	}
	return false
}

// Subscription запись о подписке пользователя.
type Subscription struct {
	ID          string     `json:"id"`
	UserUID     string     `json:"user_id"`
	PlanType    PlanType   `json:"plan_type"`
	Status      Status     `json:"status"`
	PaymentDate *time.Time `json:"payment_date"`
	ExpiryDate  time.Time  `json:"expiry_date"`
	Amount      float64    `json:"amount"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsUsable true, только если статус active и дата окончания строго в будущем.
func (s *Subscription) IsUsable(now time.Time) bool {
	return s != nil && s.Status == StatusActive && s.ExpiryDate.After(now)
}

// DaysUntilExpiry округлённое вверх число дней до окончания подписки.
func (s *Subscription) DaysUntilExpiry(now time.Time) int {
	if s == nil {
		return 0
	}
	return int(math.Ceil(s.ExpiryDate.Sub(now).Hours() / 24))
}

// SubscriptionWithEmail подписка вместе с email владельца для админ-панели.
type SubscriptionWithEmail struct {
	Subscription
	Email string `json:"email"`
}
