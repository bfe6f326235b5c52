// Package rabbitmq подключается к RabbitMQ, объявляет очередь выпусков
// рассылки, публикует и потребляет сообщения.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/streadway/amqp"
)

// Exchange direct-обменник сервиса рассылки.
const Exchange = "newsletter"

// IssueRoutingKey ключ маршрутизации выпусков.
const IssueRoutingKey = "issue"

// Connect подключается к RabbitMQ, повторяя попытку до retries раз с
// паузой delay.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	if retries < 1 {
		retries = 1
	}

	var conn *amqp.Connection
	backoff := retry.WithMaxRetries(uint64(retries-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		c, err := amqp.Dial(connection)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}

// SetupChannel открывает канал, объявляет обменник и очередь queue и
// связывает их по IssueRoutingKey.
func SetupChannel(conn *amqp.Connection, queue string) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, queue, err)
	}

	if err := ch.QueueBind(queue, IssueRoutingKey, Exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, queue, IssueRoutingKey, err)
	}
	return ch, nil
}
