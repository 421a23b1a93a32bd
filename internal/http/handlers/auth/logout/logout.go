// Package logout реализует HTTP-обработчик выхода.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
)

// Service завершает сессию.
type Service interface {
	Logout(ctx context.Context, session *models.Session) error
}

// Handler обрабатывает POST /logout.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущий токен сессии.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.service.Logout(r.Context(), session); err != nil {
		log.Error("logout failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not sign out")
		return
	}

	log.Info("user signed out", slog.String("user_uid", session.User.UUID))
	render.JSON(w, r, response.OK())
}
