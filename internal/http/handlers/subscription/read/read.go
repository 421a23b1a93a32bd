// Package read отдаёт подписку текущего пользователя.
package read

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

// Service читает подписку пользователя. nil, nil если её нет.
type Service interface {
	GetUserSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Handler обрабатывает GET /subscription.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Моя подписка
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub, err := h.service.GetUserSubscription(r.Context(), session.User.UUID)
	if err != nil {
		log.Error("failed to read subscription", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not read subscription")
		return
	}
	if sub == nil {
		response.Fail(w, r, http.StatusNotFound, "subscription not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(sub))
}
