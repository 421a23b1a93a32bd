// Package api собирает HTTP-приложение: маршруты, middleware и зависимости.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/evofit/docs"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/access"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/admin/create"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/admin/list"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/admin/renew"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/admin/status"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/admin/sweep"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/health"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/notification/send"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/workouts"
	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	adminservices "github.com/magabrotheeeer/evofit/internal/services/admin"
	gateservices "github.com/magabrotheeeer/evofit/internal/services/gate"
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
	notifyservices "github.com/magabrotheeeer/evofit/internal/services/notification"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
)

// Services зависимости, которые обслуживают маршруты.
type Services struct {
	Identity      *identityservices.Gateway
	Subscriptions *subservices.SubscriptionService
	Gate          *gateservices.Gate
	Admin         *adminservices.Console
	Notifications *notifyservices.Dispatcher
	Limiter       *middlewarectx.IPLimiter
	HealthChecks  map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))

		// Открытые конечные точки
		r.Post("/signup", signup.New(logger, s.Identity).ServeHTTP)
		r.Post("/login", login.New(logger, s.Identity).ServeHTTP)
		r.Get("/access", access.New(logger, s.Gate).ServeHTTP)

		// Группа с сессией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(s.Identity, logger))
			r.Post("/logout", logout.New(logger, s.Identity).ServeHTTP)
			r.Patch("/profile", profile.New(logger, s.Identity).ServeHTTP)
			r.Get("/subscription", read.New(logger, s.Subscriptions).ServeHTTP)

			r.With(middlewarectx.SubscriptionGate(s.Gate, logger)).
				Get("/workouts", workouts.New(workouts.Catalog).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Get("/subscriptions", list.New(logger, s.Admin).ServeHTTP)
				r.Post("/subscriptions", create.New(logger, s.Admin).ServeHTTP)
				r.Post("/subscriptions/sweep", sweep.New(logger, s.Admin).ServeHTTP)
				r.Put("/subscriptions/{userID}/status", status.New(logger, s.Admin).ServeHTTP)
				r.Post("/subscriptions/{userID}/renew", renew.New(logger, s.Admin).ServeHTTP)
			})
		})
	})

	r.With(middlewarectx.RateLimitMiddleware(s.Limiter, logger)).
		Post("/api/send-notification", send.New(logger, s.Notifications).ServeHTTP)

	r.Get("/health", health.New(logger, s.HealthChecks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
