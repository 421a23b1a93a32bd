package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/evofit/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
	notifyservices "github.com/magabrotheeeer/evofit/internal/services/notification"
)

// Dispatcher отправляет уведомление пользователю.
type Dispatcher interface {
	Send(ctx context.Context, req models.NotificationRequest) error
}

// NewNotificationHandler разбирает сообщение очереди и передаёт его диспетчеру.
// Битые сообщения и ошибки данных отклоняются, сбои провайдера возвращают сообщение в очередь.
func NewNotificationHandler(dispatcher Dispatcher, log *slog.Logger) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		const op = "sender.HandleNotification"

		var req models.NotificationRequest
		if err := json.Unmarshal(body, &req); err != nil {
			log.Error("failed to decode notification", sl.Op(op), sl.Err(err))
			return rabbitmq.Reject(fmt.Errorf("%s: %w", op, err))
		}

		err := dispatcher.Send(ctx, req)
		switch {
		case err == nil:
			return nil
		case notifyservices.IsClientError(err):
			log.Warn("notification dropped", sl.Op(op), slog.String("user_uid", req.UserID), sl.Err(err))
			return rabbitmq.Reject(fmt.Errorf("%s: %w", op, err))
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
}
