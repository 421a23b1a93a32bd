// Package profile реализует HTTP-обработчик изменения профиля: имени и телефона.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/http/response"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
)

// Request поля, которые нужно изменить. Отсутствующее поле не меняется.
type Request struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// Service меняет профиль владельца сессии.
type Service interface {
	UpdateProfile(ctx context.Context, session *models.Session, fullName, phone *string) (*models.User, error)
}

// Handler обрабатывает PATCH /profile.
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
// @Summary Изменение профиля
// @Tags Auth
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Новые значения"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /profile [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == nil && req.Phone == nil {
		response.Fail(w, r, http.StatusBadRequest, "nothing to update")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), session, req.FullName, req.Phone)
	switch {
	case errors.Is(err, identityservices.ErrInvalidCredentials):
		response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
		return
	case errors.Is(err, identityservices.ErrInvalidInput):
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("failed to update profile", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not update profile")
		return
	}

	log.Info("profile updated", slog.String("user_uid", user.UUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": user,
	}))
}
