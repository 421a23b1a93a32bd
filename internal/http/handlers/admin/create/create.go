// Package create создаёт подписку пользователю из админ-панели.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
)

// Request параметры новой подписки.
type Request struct {
	UserID   string  `json:"user_id" validate:"required,uuid"`
	PlanType string  `json:"plan_type" validate:"required,oneof=monthly yearly"`
	Amount   float64 `json:"amount" validate:"gte=0"`
}

// Service создаёт подписку.
type Service interface {
	Create(ctx context.Context, userUID string, plan models.PlanType, amount float64) (*models.Subscription, error)
}

// Handler обрабатывает POST /admin/subscriptions.
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
// @Summary Создание подписки
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Пользователь, план и сумма"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	sub, err := h.service.Create(r.Context(), req.UserID, models.PlanType(req.PlanType), req.Amount)
	switch {
	case errors.Is(err, subservices.ErrInvalidPlan), errors.Is(err, subservices.ErrInvalidAmount):
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("failed to create subscription", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not create subscription")
		return
	}

	log.Info("subscription created", slog.String("user_uid", req.UserID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(sub))
}
