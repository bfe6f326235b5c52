package newsletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

// Queue очередь выпусков для фоновой рассылки.
type Queue interface {
	Publish(ctx context.Context, message any) error
}

// Dispatcher ставит выпуск в очередь, если она настроена, и иначе
// рассылает его сразу.
type Dispatcher struct {
	queue       Queue
	broadcaster *Broadcaster
	log         *slog.Logger
}

// NewDispatcher создает новый экземпляр Dispatcher. queue может быть nil.
func NewDispatcher(queue Queue, broadcaster *Broadcaster, log *slog.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, broadcaster: broadcaster, log: log}
}

// Dispatch возвращает queued = true, если выпуск передан в очередь, и
// число отправленных писем, если рассылка прошла синхронно.
func (d *Dispatcher) Dispatch(ctx context.Context, issue models.Issue) (queued bool, sent int, err error) {
	const op = "newsletter.Dispatch"
	if d.queue == nil {
		sent, err = d.broadcaster.Publish(ctx, issue)
		return false, sent, err
	}
	if err := d.queue.Publish(ctx, issue); err != nil {
		return false, 0, apperr.Unexpected(op, "failed to enqueue the newsletter issue", err)
	}
	d.log.Info("newsletter issue enqueued", slog.String("op", op), slog.String("title", issue.Title))
	return true, 0, nil
}

// HandleMessage рассылает выпуск, полученный из очереди.
func (b *Broadcaster) HandleMessage(ctx context.Context, body []byte) error {
	const op = "newsletter.HandleMessage"
	var issue models.Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err := b.Publish(ctx, issue)
	return err
}
