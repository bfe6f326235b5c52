package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
)

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage читает сообщения из queueName по одному, пока не отменён
// ctx или не закрыт канал. Каждое сообщение подтверждается после обработки,
// даже если handler вернул ошибку: выпуск не отправляется повторно.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go consume(ctx, deliveries, handler, log.With(slog.String("op", op), slog.String("queue", queueName)))
	return nil
}

func consume(ctx context.Context, deliveries <-chan amqp.Delivery, handler Handler, log *slog.Logger) {
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			if err := handler(ctx, d.Body); err != nil {
				log.Error("failed to handle message", slog.String("message_id", d.MessageId), sl.Chain(err))
			}
			if err := d.Ack(false); err != nil {
				log.Error("failed to ack message", sl.Err(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
