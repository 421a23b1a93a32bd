// Package signup реализует HTTP-обработчик регистрации.
// Вход после регистрации не выполняется.
package signup

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
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
)

// Request — входные данные регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// Service бизнес-логика регистрации.
type Service interface {
	Signup(ctx context.Context, email, password, fullName, phone string) (*models.User, error)
}

// Handler обрабатывает POST /signup.
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
// @Summary Регистрация пользователя
// @Description Создаёт учётную запись с именем и телефоном. Вход не выполняется.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

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

	user, err := h.service.Signup(r.Context(), req.Email, req.Password, req.FullName, req.Phone)
	switch {
	case errors.Is(err, identityservices.ErrUserExists):
		log.Info("user already exists")
		response.Fail(w, r, http.StatusConflict, "user already exists")
		return
	case errors.Is(err, identityservices.ErrInvalidInput):
		log.Info("signup rejected", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("signup failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("user signed up", slog.String("user_uid", user.UUID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": user,
	}))
}
