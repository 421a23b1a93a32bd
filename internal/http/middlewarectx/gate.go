package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/models"
	gateservices "github.com/magabrotheeeer/evofit/internal/services/gate"
)

// Decider решает, открыт ли доступ к контенту для сессии.
type Decider interface {
	Decide(ctx context.Context, session *models.Session) gateservices.Decision
}

// SubscriptionGate пропускает запрос только при активном доступе.
// Иначе 403 с решением в поле data, чтобы клиент показал экран блокировки.
func SubscriptionGate(gate Decider, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			decision := gate.Decide(r.Context(), session)
			if decision.State != gateservices.StateActive {
				log.Info("subscription gate blocked request",
					slog.String("user_uid", session.User.UUID),
					slog.String("state", string(decision.State)),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ErrorWithData("active subscription required", decision))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
