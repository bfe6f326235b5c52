// Package models содержит модели данных, которыми обмениваются сервисы
// и хранилище: подписчик, учётные данные оператора и выпуск рассылки.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки.
type SubscriptionStatus string

const (
	// StatusPendingConfirmation подписчик ещё не подтвердил адрес.
	StatusPendingConfirmation SubscriptionStatus = "pending_confirmation"
	// StatusConfirmed адрес подтверждён, подписчику можно отправлять рассылку.
	StatusConfirmed SubscriptionStatus = "confirmed"
)

// Subscriber представляет строку таблицы subscriptions.
type Subscriber struct {
	ID           uuid.UUID          // Суррогатный идентификатор
	Email        string             // Адрес, уникален среди всех подписчиков
	Name         string             // Имя подписчика
	SubscribedAt time.Time          // Время создания записи, UTC
	Status       SubscriptionStatus // Статус подтверждения
}
