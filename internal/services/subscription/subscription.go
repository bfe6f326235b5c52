// Package subscription регистрирует подписчиков и подтверждает их адреса.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/newsletter/internal/domain"
	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/mailtmpl"
	"github.com/magabrotheeeer/newsletter/internal/lib/metrics"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/models"
	"github.com/magabrotheeeer/newsletter/internal/storage"
)

// Repository хранилище подписчиков и токенов.
type Repository interface {
	// InTx выполняет fn в одной транзакции.
	InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error
	// SubscriberIDByToken возвращает id подписчика по токену.
	SubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, bool, error)
	// ConfirmSubscriber переводит подписчика в статус confirmed.
	ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error
}

// EmailSender отправляет письмо подписчику.
type EmailSender interface {
	Send(ctx context.Context, to domain.SubscriberEmail, subject, html, text string) error
}

// Templates формирует письмо с подтверждением.
type Templates interface {
	Confirmation(link string) (html, text string, err error)
}

// Result результат регистрации подписчика.
type Result struct {
	SubscriberID uuid.UUID
	Token        domain.SubscriptionToken
}

// Service реализует регистрацию и подтверждение подписки.
type Service struct {
	repo      Repository
	sender    EmailSender
	templates Templates
	baseURL   string
	now       func() time.Time
	log       *slog.Logger
}

// NewService создает новый экземпляр Service. baseURL используется как
// префикс ссылки подтверждения.
func NewService(repo Repository, sender EmailSender, templates Templates, baseURL string, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sender:    sender,
		templates: templates,
		baseURL:   baseURL,
		now:       time.Now,
		log:       log,
	}
}

// ConfirmationLink ссылка, по которой подписчик подтверждает адрес.
func ConfirmationLink(baseURL string, token domain.SubscriptionToken) string {
	return baseURL + "/subscriptions/confirm?subscription_token=" + token.String()
}

// Subscribe регистрирует подписчика и отправляет письмо с подтверждением.
//
// Повторный вызов с тем же адресом не создаёт новую строку и не меняет её
// статус, но выдаёт новый токен и отправляет новое письмо. Если письмо не
// удалось отправить, записи остаются в базе, а вместе с ошибкой
// возвращается Result.
func (s *Service) Subscribe(ctx context.Context, nameRaw, emailRaw string) (Result, error) {
	const op = "subscription.Subscribe"
	log := s.log.With(slog.String("op", op))

	sub, err := domain.ParseNewSubscriber(nameRaw, emailRaw)
	if err != nil {
		metrics.Subscriptions.WithLabelValues("invalid").Inc()
		return Result{}, apperr.Validation(op, err)
	}

	var res Result
	err = s.repo.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		id, err := s.upsertSubscriber(ctx, tx, sub)
		if err != nil {
			return err
		}
		token, err := domain.GenerateSubscriptionToken()
		if err != nil {
			return apperr.Unexpected(op, "failed to generate a subscription token", err)
		}
		if err := tx.StoreToken(ctx, id, token.String()); err != nil {
			if errors.Is(err, storage.ErrTokenConflict) {
				return apperr.Unexpected(op, "generated subscription token is already in use", err)
			}
			return apperr.Unexpected(op, "failed to store the confirmation token for a new subscriber", err)
		}
		res = Result{SubscriberID: id, Token: token}
		return nil
	})
	if err != nil {
		metrics.Subscriptions.WithLabelValues("error").Inc()
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Unexpected(op, "failed to commit the subscription transaction", err)
		}
		log.Error("subscription was not stored", sl.Chain(err))
		return Result{}, err
	}

	if err := s.sendConfirmation(ctx, sub.Email, res.Token); err != nil {
		metrics.Subscriptions.WithLabelValues("send_failed").Inc()
		err = apperr.Unexpected(op, "failed to send a confirmation email", err)
		log.Error("confirmation email was not sent",
			slog.String("subscriber_id", res.SubscriberID.String()), sl.Chain(err))
		return res, err
	}

	metrics.Subscriptions.WithLabelValues("ok").Inc()
	log.Info("subscriber registered", slog.String("subscriber_id", res.SubscriberID.String()))
	return res, nil
}

func (s *Service) upsertSubscriber(ctx context.Context, tx storage.Tx, sub domain.NewSubscriber) (uuid.UUID, error) {
	const op = "subscription.upsertSubscriber"

	id, found, err := tx.SubscriberIDByEmail(ctx, sub.Email.String())
	if err != nil {
		return uuid.Nil, apperr.Unexpected(op, "failed to look up an existing subscriber", err)
	}
	if found {
		return id, nil
	}

	id, err = tx.InsertSubscriber(ctx, models.Subscriber{
		ID:           uuid.New(),
		Email:        sub.Email.String(),
		Name:         sub.Name.String(),
		SubscribedAt: s.now().UTC(),
		Status:       models.StatusPendingConfirmation,
	})
	if err != nil {
		return uuid.Nil, apperr.Unexpected(op, "failed to insert new subscriber in the database", err)
	}
	return id, nil
}

func (s *Service) sendConfirmation(ctx context.Context, to domain.SubscriberEmail, token domain.SubscriptionToken) error {
	html, text, err := s.templates.Confirmation(ConfirmationLink(s.baseURL, token))
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, to, mailtmpl.ConfirmationSubject, html, text)
}

// Confirm подтверждает подписку по токену из письма.
//
// Некорректный токен даёт KindValidation без обращения к базе, неизвестный
// токен даёт KindUnauthorized. Повторное подтверждение не является ошибкой.
func (s *Service) Confirm(ctx context.Context, tokenRaw string) error {
	const op = "subscription.Confirm"
	log := s.log.With(slog.String("op", op))

	token, err := domain.ParseSubscriptionToken(tokenRaw)
	if err != nil {
		metrics.Confirmations.WithLabelValues("invalid").Inc()
		return apperr.Validation(op, err)
	}

	id, found, err := s.repo.SubscriberIDByToken(ctx, token.String())
	if err != nil {
		metrics.Confirmations.WithLabelValues("error").Inc()
		err = apperr.Unexpected(op, "failed to retrieve the subscriber id associated with the provided token", err)
		log.Error("confirmation failed", sl.Chain(err))
		return err
	}
	if !found {
		metrics.Confirmations.WithLabelValues("unknown").Inc()
		return apperr.Unauthorized(op, "there is no subscriber associated with the provided token")
	}

	if err := s.repo.ConfirmSubscriber(ctx, id); err != nil {
		metrics.Confirmations.WithLabelValues("error").Inc()
		err = apperr.Unexpected(op, "failed to update the subscriber status to confirmed", err)
		log.Error("confirmation failed", sl.Chain(err))
		return err
	}

	metrics.Confirmations.WithLabelValues("ok").Inc()
	log.Info("subscription confirmed", slog.String("subscriber_id", id.String()))
	return nil
}
