// Package apperr описывает типизированные ошибки бизнес-уровня.
//
// Каждая ошибка несёт вид (Kind), имя операции, сообщение для вызывающей
// стороны и необязательную причину. Транспортный слой выбирает HTTP-статус
// по виду ошибки, а полная цепочка причин попадает только в логи.
package apperr

import (
	"errors"
	"strings"
)

// Kind вид ошибки.
type Kind int

const (
	// KindUnexpected внутренняя ошибка, не зависящая от вызывающей стороны.
	KindUnexpected Kind = iota
	// KindValidation некорректные входные данные.
	KindValidation
	// KindUnauthorized корректный по форме, но неизвестный токен.
	KindUnauthorized
	// KindInvalidCredentials неверное имя пользователя или пароль.
	KindInvalidCredentials
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidCredentials:
		return "invalid_credentials"
	default:
		return "unexpected"
	}
}

// Error ошибка бизнес-уровня.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation оборачивает ошибку разбора входных данных. Текст причины
// безопасен для показа клиенту.
func Validation(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: err.Error(), Err: err}
}

// Unauthorized возвращает ошибку отказа в доступе с заданным сообщением.
func Unauthorized(op, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Msg: msg}
}

// InvalidCredentials возвращает ошибку неверных учётных данных.
func InvalidCredentials(op string, err error) *Error {
	return &Error{Kind: KindInvalidCredentials, Op: op, Msg: "invalid credentials", Err: err}
}

// Unexpected оборачивает внутреннюю ошибку с описанием того, что не удалось сделать.
func Unexpected(op, msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Op: op, Msg: msg, Err: err}
}

// KindOf возвращает вид первой *Error в цепочке. Ошибки без *Error
// считаются внутренними.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Is сообщает, относится ли ошибка к виду kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Chain печатает ошибку вместе со всеми причинами, по одной на строку.
// Ошибки, объединённые через errors.Join, печатаются одной причиной.
//
//	failed to store subscriber
//
//	Caused by:
//		subscription.Subscribe: storage.InsertSubscriber: connection refused
func Chain(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(err.Error())

	var causes []string
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		causes = append(causes, cause.Error())
	}
	if len(causes) > 0 {
		b.WriteString("\n\nCaused by:")
		for _, c := range causes {
			b.WriteString("\n\t")
			b.WriteString(c)
		}
	}
	return b.String()
}

