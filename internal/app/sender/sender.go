// Package sender собирает фоновый обработчик, который рассылает выпуски
// из очереди RabbitMQ.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/newsletter/internal/config"
	"github.com/magabrotheeeer/newsletter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/services/newsletter"
	senderservice "github.com/magabrotheeeer/newsletter/internal/services/sender"
	"github.com/magabrotheeeer/newsletter/internal/storage"
)

// App обработчик очереди выпусков.
type App struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	db          *storage.Storage
	queue       string
	broadcaster *newsletter.Broadcaster
	logger      *slog.Logger
}

// New подключается к базе и RabbitMQ и объявляет очередь выпусков.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("rabbitmq url is not configured"))
	}

	policy, err := newsletter.ParseFailurePolicy(cfg.Newsletter.FailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	emailSender, err := senderservice.New(ctx, cfg.Email, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Queue)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:        conn,
		ch:          ch,
		db:          db,
		queue:       cfg.RabbitMQ.Queue,
		broadcaster: newsletter.NewBroadcaster(db, emailSender, policy, logger),
		logger:      logger,
	}, nil
}

// Run потребляет очередь, пока не отменён ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.broadcaster.HandleMessage, a.logger)
	if err != nil {
		a.logger.Error("failed to start issue consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}
	a.logger.Info("issue consumer started", slog.String("queue", a.queue))

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
