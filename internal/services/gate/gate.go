// Package services решает, что показать пользователю: экран входа,
// экран блокировки или защищённый контент.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/metrics"
	"github.com/magabrotheeeer/evofit/internal/models"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
)

// State состояние экрана доступа.
type State string

const (
	StateLoading       State = "loading"
	StateRedirectLogin State = "redirect_login"
	StateBlocked       State = "blocked"
	StateActive        State = "active"
)

// LogoutAction действие, которое клиент предлагает на экране блокировки.
const LogoutAction = "logout"

// Identity возвращает сессию по токену или nil.
type Identity interface {
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// StatusChecker проверяет подписку пользователя.
type StatusChecker interface {
	CheckStatus(ctx context.Context, userUID string) subservices.StatusResult
}

// Snapshot то, что пользователь видит о своей подписке.
type Snapshot struct {
	Status     models.Status   `json:"status"`
	PlanType   models.PlanType `json:"plan_type"`
	ExpiryDate time.Time       `json:"expiry_date"`
}

// Decision результат разрешения доступа.
type Decision struct {
	State           State           `json:"state"`
	Session         *models.Session `json:"-"`
	User            *models.User    `json:"user,omitempty"`
	Subscription    *Snapshot       `json:"subscription,omitempty"`
	DaysUntilExpiry *int            `json:"days_until_expiry,omitempty"`
	ExpiryWarning   bool            `json:"expiry_warning,omitempty"`
	SupportContact  string          `json:"support_contact_url,omitempty"`
	Action          string          `json:"action,omitempty"`
}

// Config настройки экрана доступа.
type Config struct {
	Policy            subservices.FailurePolicy
	SupportContactURL string
	ExpiryWarningDays int
}

// Gate разрешает доступ по сессии и подписке.
type Gate struct {
	identity Identity
	subs     StatusChecker
	cfg      Config
	now      func() time.Time
	log      *slog.Logger
}

// NewGate создаёт Gate.
func NewGate(identity Identity, subs StatusChecker, cfg Config, log *slog.Logger) *Gate {
	if cfg.Policy == "" {
		cfg.Policy = subservices.FailClosed
	}
	return &Gate{identity: identity, subs: subs, cfg: cfg, now: time.Now, log: log}
}

// WithClock подменяет источник времени.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Resolve определяет состояние доступа для токена.
func (g *Gate) Resolve(ctx context.Context, token string) Decision {
	const op = "services.gate.Resolve"

	session, err := g.identity.CurrentSession(ctx, token)
	if err != nil {
		g.log.Error("failed to resolve identity", sl.Op(op), sl.Err(err))
	}
	if err != nil || session == nil || session.User == nil {
		return g.record(Decision{State: StateRedirectLogin})
	}
	return g.Decide(ctx, session)
}

// Decide определяет состояние доступа для уже известной сессии.
func (g *Gate) Decide(ctx context.Context, session *models.Session) Decision {
	if session == nil || session.User == nil {
		return g.record(Decision{State: StateRedirectLogin})
	}
	d := Decision{Session: session, User: session.User}
	if session.User.IsAdmin() {
		d.State = StateActive
		return g.record(d)
	}

	res := g.subs.CheckStatus(ctx, session.User.UUID)
	if res.Subscription != nil {
		d.Subscription = &Snapshot{
			Status:     res.Subscription.Status,
			PlanType:   res.Subscription.PlanType,
			ExpiryDate: res.Subscription.ExpiryDate,
		}
	}
	if !res.Allowed(g.cfg.Policy) {
		d.State = StateBlocked
		d.SupportContact = g.cfg.SupportContactURL
		d.Action = LogoutAction
		return g.record(d)
	}

	d.State = StateActive
	if res.Subscription != nil {
		days := res.Subscription.DaysUntilExpiry(g.now())
		d.DaysUntilExpiry = &days
		d.ExpiryWarning = days > 0 && days <= g.cfg.ExpiryWarningDays
	}
	return g.record(d)
}

func (g *Gate) record(d Decision) Decision {
	metrics.AccessDecisionsTotal.WithLabelValues(string(d.State)).Inc()
	return d
}
