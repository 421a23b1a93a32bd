// Package middlewarectx содержит HTTP middleware: извлечение сессии по bearer-токену,
// проверку роли администратора, проверку подписки, ограничение частоты запросов и метрики.
//
// Сессия кладётся в контекст запроса и читается обработчиками через SessionFromContext.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// SessionKey ключ сессии в контексте.
const SessionKey Key = "session"

// SessionProvider возвращает сессию по токену или nil, если её нет.
type SessionProvider interface {
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// BearerToken достаёт токен из заголовка Authorization. Пустая строка, если его нет.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// SessionFromContext возвращает сессию запроса.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil && session.User != nil
}

// SessionMiddleware требует действующую сессию. Без неё отвечает 401,
// при сбое сервиса идентификации 503.
func SessionMiddleware(provider SessionProvider, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := BearerToken(r)
			if token == "" {
				log.Info("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			session, err := provider.CurrentSession(r.Context(), token)
			if err != nil {
				log.Error("failed to resolve session", sl.Err(err))
				response.Fail(w, r, http.StatusServiceUnavailable, "identity service unavailable")
				return
			}
			if session == nil || session.User == nil {
				log.Info("invalid or expired token")
				response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// AdminOnly пропускает только администраторов, остальным отвечает 403.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !session.User.IsAdmin() {
				log.Warn("admin access denied",
					slog.String("user_uid", session.User.UUID),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Fail(w, r, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
