package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/evofit/internal/lib/sl"
)

// Handler обрабатывает тело сообщения.
type Handler func(ctx context.Context, body []byte) error

type rejectError struct{ err error }

func (e rejectError) Error() string { return e.err.Error() }
func (e rejectError) Unwrap() error { return e.err }

// Reject помечает ошибку как неисправимую: сообщение будет отклонено без возврата в очередь.
func Reject(err error) error {
	if err == nil {
		return nil
	}
	return rejectError{err: err}
}

// IsRejected сообщает, помечена ли ошибка через Reject.
func IsRejected(err error) bool {
	var re rejectError
	return errors.As(err, &re)
}

// Consumer читает очередь и обрабатывает сообщения не более чем workers параллельно.
type Consumer struct {
	log     *slog.Logger
	handler Handler
	workers int
}

// NewConsumer создаёт потребителя.
func NewConsumer(log *slog.Logger, handler Handler, workers int) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{log: log, handler: handler, workers: workers}
}

// Consume подписывается на очередь и блокируется до отмены ctx или закрытия канала доставки.
func (c *Consumer) Consume(ctx context.Context, ch *amqp.Channel, queueName string) error {
	const op = "rabbitmq.Consume"
	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.Run(ctx, delivery)
	return nil
}

// Run обрабатывает поток доставок и дожидается завершения начатых обработчиков.
func (c *Consumer) Run(ctx context.Context, delivery <-chan amqp.Delivery) {
	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer func() {
					<-sem
					wg.Done()
				}()
				c.handle(ctx, d)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	err := c.handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.log.Error("failed to ack message", sl.Err(ackErr))
		}
	case IsRejected(err):
		c.log.Warn("dropping message", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.log.Error("failed to reject message", sl.Err(nackErr))
		}
	default:
		c.log.Error("failed to handle message, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
