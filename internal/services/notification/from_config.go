package services

import (
	"log/slog"

	"github.com/magabrotheeeer/evofit/internal/config"
	"github.com/magabrotheeeer/evofit/internal/twilio"
)

// NewFromConfig собирает диспетчер с клиентом Twilio из настроек сервиса.
func NewFromConfig(cfg *config.Config, users UserLookup, log *slog.Logger) *Dispatcher {
	sender := twilio.NewClient(cfg.AccountSID, cfg.AuthToken, cfg.APIURL, cfg.TwilioTimeout)
	return NewDispatcher(sender, users, Config{
		Configured:     cfg.TwilioConfigured(),
		SMSFrom:        cfg.PhoneNumber,
		WhatsAppFrom:   cfg.WhatsAppNumber,
		FallbackNumber: cfg.DefaultNotificationPhone,
	}, log)
}
