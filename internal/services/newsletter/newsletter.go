// Package newsletter рассылает выпуски подтверждённым подписчикам.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/newsletter/internal/domain"
	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/metrics"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

// FailurePolicy определяет, что делать, если письмо одному из подписчиков
// не удалось отправить.
type FailurePolicy int

const (
	// ContinueOnFailure отправляет остальным и возвращает все ошибки разом.
	ContinueOnFailure FailurePolicy = iota
	// AbortOnFailure прекращает рассылку на первой ошибке.
	AbortOnFailure
)

func (p FailurePolicy) String() string {
	if p == AbortOnFailure {
		return "abort"
	}
	return "continue"
}

// ParseFailurePolicy разбирает значение из конфигурации: "continue" или "abort".
// Пустая строка означает ContinueOnFailure.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "continue":
		return ContinueOnFailure, nil
	case "abort":
		return AbortOnFailure, nil
	default:
		return ContinueOnFailure, fmt.Errorf("unknown newsletter failure policy %q", s)
	}
}

// Repository источник адресов подтверждённых подписчиков.
type Repository interface {
	ConfirmedSubscriberEmails(ctx context.Context) ([]string, error)
}

// EmailSender отправляет письмо подписчику.
type EmailSender interface {
	Send(ctx context.Context, to domain.SubscriberEmail, subject, html, text string) error
}

// Broadcaster рассылает выпуски.
type Broadcaster struct {
	repo   Repository
	sender EmailSender
	policy FailurePolicy
	log    *slog.Logger
}

// NewBroadcaster создает новый экземпляр Broadcaster.
func NewBroadcaster(repo Repository, sender EmailSender, policy FailurePolicy, log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		repo:   repo,
		sender: sender,
		policy: policy,
		log:    log,
	}
}

// Publish отправляет выпуск каждому подтверждённому подписчику по очереди
// и возвращает число отправленных писем.
//
// Адреса, которые больше не проходят проверку, пропускаются с
// предупреждением в логе. Ошибки отправки обрабатываются согласно
// FailurePolicy и возвращаются как KindUnexpected.
func (b *Broadcaster) Publish(ctx context.Context, issue models.Issue) (int, error) {
	const op = "newsletter.Publish"
	log := b.log.With(slog.String("op", op), slog.String("title", issue.Title))

	stored, err := b.repo.ConfirmedSubscriberEmails(ctx)
	if err != nil {
		err = apperr.Unexpected(op, "failed to get the list of confirmed subscribers", err)
		log.Error("newsletter issue was not published", sl.Chain(err))
		return 0, err
	}

	sent := 0
	var failures []error
	for _, raw := range stored {
		email, err := domain.ParseSubscriberEmail(raw)
		if err != nil {
			metrics.Deliveries.WithLabelValues("skipped").Inc()
			log.Warn("skipping a confirmed subscriber, their stored contact details are invalid", sl.Err(err))
			continue
		}

		if err := b.sender.Send(ctx, email, issue.Title, issue.HTML, issue.Text); err != nil {
			metrics.Deliveries.WithLabelValues("failed").Inc()
			err = fmt.Errorf("failed to send newsletter issue to %s: %w", email, err)
			log.Error("newsletter delivery failed", sl.Err(err))
			failures = append(failures, err)
			if b.policy == AbortOnFailure {
				break
			}
			continue
		}
		metrics.Deliveries.WithLabelValues("sent").Inc()
		sent++
	}

	if len(failures) > 0 {
		return sent, apperr.Unexpected(op,
			fmt.Sprintf("failed to deliver newsletter issue to %d subscriber(s)", len(failures)),
			errors.Join(failures...))
	}

	log.Info("newsletter issue published", slog.Int("sent", sent))
	return sent, nil
}
