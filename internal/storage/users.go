package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/newsletter/internal/models"
)

// GetStoredCredentials возвращает id и хеш пароля оператора по имени.
// Отсутствие оператора не ошибка: found == false.
func (q *Queries) GetStoredCredentials(ctx context.Context, username string) (models.OperatorCredentials, bool, error) {
	const op = "storage.GetStoredCredentials"
	if err := checkCtx(ctx, op); err != nil {
		return models.OperatorCredentials{}, false, err
	}

	creds := models.OperatorCredentials{Username: username}
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, password_hash FROM users WHERE username = $1`, username).
		Scan(&creds.UserID, &creds.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OperatorCredentials{}, false, nil
	}
	if err != nil {
		return models.OperatorCredentials{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return creds, true, nil
}

// GetUsername возвращает имя оператора по id.
func (q *Queries) GetUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "storage.GetUsername"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var username string
	err := q.db.QueryRowContext(ctx, `SELECT username FROM users WHERE user_id = $1`, userID).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return username, nil
}

// UpdatePasswordHash заменяет хеш пароля оператора.
func (q *Queries) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	const op = "storage.UpdatePasswordHash"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE user_id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CreateOperator добавляет оператора, если оператора с таким именем ещё нет.
// Возвращает false, если запись уже существовала.
func (q *Queries) CreateOperator(ctx context.Context, creds models.OperatorCredentials) (bool, error) {
	const op = "storage.CreateOperator"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, password_hash) VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO NOTHING`,
		creds.UserID, creds.Username, creds.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
