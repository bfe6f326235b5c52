// Package storage реализует хранилище данных на основе PostgreSQL
// для подписчиков, токенов подтверждения и учётных записей операторов.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/newsletter/internal/models"
)

// ErrTokenConflict сгенерированный токен уже принадлежит другой записи.
var ErrTokenConflict = errors.New("subscription token already exists")

// ErrNotFound запись не найдена.
var ErrNotFound = errors.New("not found")

// Tx операции, доступные внутри транзакции регистрации подписчика.
type Tx interface {
	SubscriberIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error)
	InsertSubscriber(ctx context.Context, sub models.Subscriber) (uuid.UUID, error)
	StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error
}

// Storage инкапсулирует пул соединений с PostgreSQL.
// Методы Queries, вызванные напрямую, выполняются вне транзакции.
type Storage struct {
	DB *sql.DB
	*Queries
}

// Queries набор запросов поверх *sql.DB или *sql.Tx.
type Queries struct {
	db DBTX
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithDB(db), nil
}

// NewWithDB оборачивает готовый пул соединений.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{DB: db, Queries: &Queries{db: db}}
}

// InTx выполняет fn в одной транзакции. Ошибка fn или фиксации откатывает
// все изменения.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	const op = "storage.InTx"
	err := withTx(ctx, s.DB, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, &Queries{db: tx})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
