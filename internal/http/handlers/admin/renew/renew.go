// Package renew продление подписки из админ-панели.
// Продление всегда делает подписку активной.
package renew

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

// Request план и сумма продления.
type Request struct {
	PlanType string  `json:"plan_type" validate:"required,oneof=monthly yearly"`
	Amount   float64 `json:"amount" validate:"gte=0"`
}

// Service продлевает подписку.
type Service interface {
	Renew(ctx context.Context, userUID string, plan models.PlanType, amount float64) error
}

// Handler обрабатывает POST /admin/subscriptions/{userID}/renew.
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
// @Summary Продление подписки
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param userID path string true "ID пользователя"
// @Param request body Request true "План и сумма"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/subscriptions/{userID}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.renew"

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

	err := h.service.Renew(r.Context(), userID, models.PlanType(req.PlanType), req.Amount)
	switch {
	case errors.Is(err, subservices.ErrSubscriptionNotFound):
		response.Fail(w, r, http.StatusNotFound, "subscription not found")
		return
	case errors.Is(err, subservices.ErrInvalidPlan), errors.Is(err, subservices.ErrInvalidAmount):
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("failed to renew subscription", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not renew subscription")
		return
	}

	log.Info("subscription renewed", slog.String("user_uid", userID), slog.String("plan", req.PlanType))
	render.JSON(w, r, response.OK())
}
