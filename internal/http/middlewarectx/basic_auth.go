package middlewarectx

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
)

// BasicRealm значение заголовка WWW-Authenticate для публикации выпусков.
const BasicRealm = `Basic realm="publish"`

// CredentialsValidator проверяет имя и пароль оператора.
type CredentialsValidator interface {
	ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error)
}

// BasicAuth проверяет учётные данные из заголовка Authorization: Basic.
// Отсутствующий или некорректный заголовок даёт KindInvalidCredentials.
func BasicAuth(r *http.Request, validator CredentialsValidator) (uuid.UUID, error) {
	const op = "middlewarectx.BasicAuth"
	username, password, ok := r.BasicAuth()
	if !ok {
		return uuid.Nil, &apperr.Error{
			Kind: apperr.KindInvalidCredentials,
			Op:   op,
			Msg:  "the 'Authorization' header is missing or is not a valid 'Basic' header",
		}
	}
	return validator.ValidateCredentials(r.Context(), username, password)
}
