// Package sender собирает потребителя очереди уведомлений.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/evofit/internal/config"
	"github.com/magabrotheeeer/evofit/internal/grpc/client"
	"github.com/magabrotheeeer/evofit/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	notifyservices "github.com/magabrotheeeer/evofit/internal/services/notification"
)

// App потребитель уведомлений.
type App struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	authClient *client.AuthClient
	consumer   *rabbitmq.Consumer
	logger     *slog.Logger
}

// New подключается к брокеру и сервису идентификации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	var err error
	a.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.GetNotificationQueues(), cfg.ConsumerPrefetch)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	a.authClient, err = client.NewAuthClient(cfg.GRPCAuthAddress)
	if err != nil {
		a.close()
		return nil, err
	}

	dispatcher := notifyservices.NewFromConfig(cfg, a.authClient, logger)
	a.consumer = rabbitmq.NewConsumer(logger, NewNotificationHandler(dispatcher, logger), cfg.ConsumerPrefetch)

	return a, nil
}

// Run читает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("notification sender started", slog.String("queue", rabbitmq.QueueAccount))

	err := a.consumer.Consume(ctx, a.ch, rabbitmq.QueueAccount)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueAccount), sl.Err(err))
	}

	a.logger.Info("notification sender shutting down gracefully")
	a.close()
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.authClient != nil {
		if err := a.authClient.Close(); err != nil {
			a.logger.Error("failed to close auth client", sl.Err(err))
		}
	}
}
