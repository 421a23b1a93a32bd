// Package send реализует POST /api/send-notification.
//
// Ответ не использует общий конверт: успех {"success":true,"message":...},
// ошибка {"error":...} с кодом 400, если номер получателя не найден, и 500 в остальных случаях.
package send

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
	notifyservices "github.com/magabrotheeeer/evofit/internal/services/notification"
)

const (
	msgSent          = "Notificação enviada com sucesso"
	msgNotConfigured = "Credenciais do Twilio não configuradas"
	msgNoPhone       = "Número de telefone não encontrado"
	msgFailed        = "Erro ao enviar notificação"
)

// Success тело успешного ответа.
type Success struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Notificação enviada com sucesso"`
}

// Failure тело ответа с ошибкой.
type Failure struct {
	Error string `json:"error" example:"Número de telefone não encontrado"`
}

// Service отправляет уведомление.
type Service interface {
	Send(ctx context.Context, req models.NotificationRequest) error
}

// Handler обрабатывает POST /api/send-notification.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отправка уведомления
// @Description Отправляет уведомление о входе или приветствие по SMS и/или WhatsApp.
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Param request body models.NotificationRequest true "Получатель и тип"
// @Success 200 {object} Success
// @Failure 400 {object} Failure "Номер не найден"
// @Failure 500 {object} Failure "Провайдер не настроен или ошибка отправки"
// @Router /api/send-notification [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.send"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.NotificationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		fail(w, r, http.StatusInternalServerError, msgFailed)
		return
	}

	err := h.service.Send(r.Context(), req)
	switch {
	case errors.Is(err, notifyservices.ErrNotConfigured):
		log.Error("messaging provider is not configured")
		fail(w, r, http.StatusInternalServerError, msgNotConfigured)
		return
	case errors.Is(err, notifyservices.ErrNoPhone):
		log.Info("no phone number for notification", slog.String("user_id", req.UserID))
		fail(w, r, http.StatusBadRequest, msgNoPhone)
		return
	case err != nil:
		log.Error("failed to send notification", sl.Err(err))
		fail(w, r, http.StatusInternalServerError, msgFailed)
		return
	}

	log.Info("notification sent", slog.String("user_id", req.UserID), slog.String("type", req.Type))
	render.JSON(w, r, Success{Success: true, Message: msgSent})
}

func fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Failure{Error: msg})
}
