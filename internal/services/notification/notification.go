// Package services реализует диспетчер уведомлений: выбирает шаблон,
// определяет номер получателя и отправляет сообщение по SMS и WhatsApp через Twilio.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/metrics"
	"github.com/magabrotheeeer/evofit/internal/models"
	"github.com/magabrotheeeer/evofit/internal/twilio"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"

	whatsAppPrefix = "whatsapp:"
)

var (
	// ErrNotConfigured не заданы учётные данные провайдера.
	ErrNotConfigured = errors.New("messaging provider credentials are not configured")
	// ErrNoPhone не удалось определить номер получателя.
	ErrNoPhone = errors.New("phone number not found")
)

// DispatchError ошибка отправки по конкретному каналу.
type DispatchError struct {
	Channel string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("send %s: %v", e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsClientError сообщает, что запрос не может быть выполнен при повторе:
// нет номера, нет учётных данных или провайдер отклонил сообщение с кодом 4xx (кроме 429).
func IsClientError(err error) bool {
	if errors.Is(err, ErrNoPhone) || errors.Is(err, ErrNotConfigured) {
		return true
	}
	var apiErr *twilio.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
			apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// MessageSender отправляет одно сообщение через провайдера.
type MessageSender interface {
	SendMessage(ctx context.Context, to, from, body string) (*twilio.MessageResponse, error)
}

// UserLookup ищет пользователя, чтобы взять телефон из профиля.
type UserLookup interface {
	GetUserByID(ctx context.Context, userUID string) (*models.User, error)
}

// Config настройки каналов. Пустой номер отправителя отключает канал.
type Config struct {
	Configured     bool
	SMSFrom        string
	WhatsAppFrom   string
	FallbackNumber string
}

// Dispatcher отправляет уведомления пользователям.
type Dispatcher struct {
	sender MessageSender
	users  UserLookup
	cfg    Config
	log    *slog.Logger
}

// NewDispatcher создаёт диспетчер. users может быть nil.
func NewDispatcher(sender MessageSender, users UserLookup, cfg Config, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		users:  users,
		cfg:    cfg,
		log:    log,
	}
}

// Send отправляет уведомление по всем настроенным каналам.
func (d *Dispatcher) Send(ctx context.Context, req models.NotificationRequest) error {
	const op = "services.notification.Send"
	log := d.log.With(sl.Op(op), slog.String("user_id", req.UserID), slog.String("type", req.Type))

	if !d.cfg.Configured || d.sender == nil {
		return ErrNotConfigured
	}

	phone := d.resolvePhone(ctx, log, req)
	if phone == "" {
		return ErrNoPhone
	}

	body := Message(req)

	if d.cfg.SMSFrom != "" {
		if err := d.deliver(ctx, ChannelSMS, phone, d.cfg.SMSFrom, body); err != nil {
			return err
		}
	}
	if d.cfg.WhatsAppFrom != "" {
		if err := d.deliver(ctx, ChannelWhatsApp, withWhatsAppPrefix(phone), withWhatsAppPrefix(d.cfg.WhatsAppFrom), body); err != nil {
			return err
		}
	}
	log.Info("notification sent")
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, channel, to, from, body string) error {
	if _, err := d.sender.SendMessage(ctx, to, from, body); err != nil {
		metrics.NotificationsTotal.WithLabelValues(channel, metrics.ResultFailure).Inc()
		return &DispatchError{Channel: channel, Err: err}
	}
	metrics.NotificationsTotal.WithLabelValues(channel, metrics.ResultSuccess).Inc()
	return nil
}

// resolvePhone явный номер, затем номер из профиля, затем резервный номер из конфига.
func (d *Dispatcher) resolvePhone(ctx context.Context, log *slog.Logger, req models.NotificationRequest) string {
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		return phone
	}
	if d.users != nil && req.UserID != "" {
		user, err := d.users.GetUserByID(ctx, req.UserID)
		if err != nil {
			log.Warn("failed to look up user phone", sl.Err(err))
		} else if phone := strings.TrimSpace(user.Phone()); phone != "" {
			return phone
		}
	}
	return strings.TrimSpace(d.cfg.FallbackNumber)
}

// Message текст уведомления по типу запроса.
func Message(req models.NotificationRequest) string {
	if req.Type == models.NotificationLogin {
		return fmt.Sprintf("🔐 Novo login detectado na sua conta EvoFit AI (%s). Se não foi você, altere sua senha imediatamente.", req.Email)
	}
	return "✅ Bem-vindo ao EvoFit AI! Sua conta foi criada com sucesso."
}

func withWhatsAppPrefix(number string) string {
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}
