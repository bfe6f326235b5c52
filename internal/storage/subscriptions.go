package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/newsletter/internal/models"
)

// SubscriberIDByEmail ищет подписчика по точному совпадению адреса.
func (q *Queries) SubscriberIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	const op = "storage.SubscriberIDByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return uuid.Nil, false, err
	}

	var id uuid.UUID
	err := q.db.QueryRowContext(ctx, `SELECT id FROM subscriptions WHERE email = $1`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return id, true, nil
}

// InsertSubscriber вставляет подписчика и возвращает его id. Если строку с
// тем же адресом успела вставить параллельная транзакция, возвращается id
// существующей строки.
func (q *Queries) InsertSubscriber(ctx context.Context, sub models.Subscriber) (uuid.UUID, error) {
	const op = "storage.InsertSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return uuid.Nil, err
	}

	query := `INSERT INTO subscriptions (id, email, name, subscribed_at, status)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (email) DO NOTHING
			  RETURNING id`
	var id uuid.UUID
	err := q.db.QueryRowContext(ctx, query,
		sub.ID, sub.Email, sub.Name, sub.SubscribedAt, string(sub.Status)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, found, err := q.SubscriberIDByEmail(ctx, sub.Email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return uuid.Nil, fmt.Errorf("%s: conflicting row for %s is not visible", op, sub.Email)
	}
	return existing, nil
}

// StoreToken сохраняет токен подтверждения для подписчика.
func (q *Queries) StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error {
	const op = "storage.StoreToken"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO subscription_tokens (subscription_token, subscriber_id) VALUES ($1, $2)`
	if _, err := q.db.ExecContext(ctx, query, token, subscriberID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, ErrTokenConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SubscriberIDByToken возвращает id подписчика, которому выдан токен.
func (q *Queries) SubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, bool, error) {
	const op = "storage.SubscriberIDByToken"
	if err := checkCtx(ctx, op); err != nil {
		return uuid.Nil, false, err
	}

	var id uuid.UUID
	err := q.db.QueryRowContext(ctx,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return id, true, nil
}

// ConfirmSubscriber переводит подписчика в статус confirmed.
// Повторный вызов ничего не меняет.
func (q *Queries) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	const op = "storage.ConfirmSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := q.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`, string(models.StatusConfirmed), subscriberID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConfirmedSubscriberEmails возвращает адреса всех подтверждённых подписчиков
// в том виде, в каком они хранятся.
func (q *Queries) ConfirmedSubscriberEmails(ctx context.Context) ([]string, error) {
	const op = "storage.ConfirmedSubscriberEmails"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT email FROM subscriptions WHERE status = $1`, string(models.StatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return emails, nil
}

// SubscriberByEmail возвращает полную запись подписчика.
func (q *Queries) SubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.SubscriberByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		sub    models.Subscriber
		status string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, email, name, subscribed_at, status FROM subscriptions WHERE email = $1`, email).
		Scan(&sub.ID, &sub.Email, &sub.Name, &sub.SubscribedAt, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = models.SubscriptionStatus(status)
	return &sub, nil
}
