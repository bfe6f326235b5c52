package models

import "github.com/google/uuid"

// OperatorCredentials учётные данные оператора, публикующего рассылку.
type OperatorCredentials struct {
	UserID       uuid.UUID // Идентификатор оператора
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хеш пароля в формате PHC
}
