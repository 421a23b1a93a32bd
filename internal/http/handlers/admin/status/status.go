// Package status ручная смена статуса подписки.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
)

// Request новый статус.
type Request struct {
	Status string `json:"status" validate:"required,oneof=active inactive expired pending"`
}

// Service меняет статус подписки.
type Service interface {
	ChangeStatus(ctx context.Context, userUID string, status models.Status) error
}

// Handler обрабатывает PUT /admin/subscriptions/{userID}/status.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Смена статуса подписки
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param userID path string true "ID пользователя"
// @Param request body Request true "Новый статус"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/subscriptions/{userID}/status [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		response.Fail(w, r, http.StatusBadRequest, "user id is required")
		return
	}
	if _, err := uuid.Parse(userID); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "user id must be a valid uuid")
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	err := h.service.ChangeStatus(r.Context(), userID, models.Status(req.Status))
	switch {
	case errors.Is(err, subservices.ErrSubscriptionNotFound):
		response.Fail(w, r, http.StatusNotFound, "subscription not found")
		return
	case errors.Is(err, subservices.ErrInvalidStatus):
		response.Fail(w, r, http.StatusBadRequest, "invalid subscription status")
		return
	case err != nil:
		log.Error("failed to update subscription status", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not update subscription")
		return
	}

	log.Info("subscription status changed", slog.String("user_uid", userID), slog.String("status", req.Status))
	render.JSON(w, r, response.OK())
}
