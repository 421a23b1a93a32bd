package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/evofit/internal/models"
)

// Channel часть amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его как persistent-сообщение.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NotificationPublisher публикует запросы на уведомления в очередь аккаунта.
// Канал AMQP не рассчитан на конкурентную публикацию, поэтому вызовы сериализуются.
type NotificationPublisher struct {
	mu sync.Mutex
	ch Channel
}

// NewNotificationPublisher создаёт публикатор поверх открытого канала.
func NewNotificationPublisher(ch Channel) *NotificationPublisher {
	return &NotificationPublisher{ch: ch}
}

// Notify ставит запрос на уведомление в очередь.
func (p *NotificationPublisher) Notify(ctx context.Context, req models.NotificationRequest) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq.Notify: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishMessage(p.ch, ExchangeNotifications, RoutingKeyAccount, req)
}
