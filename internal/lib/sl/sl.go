// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: упростить формирование структурированных полей лога,
// например, для передачи информации об ошибках.
package sl

import (
	"log/slog"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Chain возвращает slog.Attr с ключом "cause_chain" и полной цепочкой причин.
// Используется для внутренних ошибок, детали которых не уходят клиенту.
func Chain(err error) slog.Attr {
	return slog.String("cause_chain", apperr.Chain(err))
}
