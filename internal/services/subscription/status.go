package services

import (
	"fmt"

	"github.com/magabrotheeeer/evofit/internal/models"
)

// State итог проверки подписки.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateUnknown  State = "unknown"
)

// FailurePolicy решает, пускать ли пользователя, когда статус неизвестен.
type FailurePolicy string

const (
	FailClosed FailurePolicy = "fail_closed"
	FailOpen   FailurePolicy = "fail_open"
)

// ParseFailurePolicy разбирает значение из конфига.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case FailClosed, FailOpen:
		return p, nil
	case "":
		return FailClosed, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// StatusResult результат проверки статуса. Subscription заполнен, если запись прочитана;
// Err заполнен только для StateUnknown.
type StatusResult struct {
	State        State
	Subscription *models.Subscription
	Err          error
}

// Allowed применяет политику к результату.
func (r StatusResult) Allowed(policy FailurePolicy) bool {
	switch r.State {
	case StateActive:
		return true
	case StateUnknown:
		return policy == FailOpen
	default:
		return false
	}
}
