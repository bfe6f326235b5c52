// Package middlewarectx содержит HTTP middleware аутентификации операторов.
//
// JWTMiddleware проверяет JWT из заголовка Authorization и кладёт данные
// оператора в контекст. BasicAuth разбирает учётные данные из заголовка
// Basic и проверяет их.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/newsletter/internal/http/response"
	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/jwt"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Claims ключ для *jwt.CustomClaims в контексте.
	Claims Key = "claims"
	// UserID ключ для идентификатора оператора в контексте.
	UserID Key = "user_id"
)

// TokenAuthenticator проверяет JWT оператора.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
// Отозванные и просроченные токены дают 401.
func JWTMiddleware(authService TokenAuthenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := authService.Authenticate(r.Context(), tokenStr)
			if err != nil {
				if apperr.Is(err, apperr.KindUnexpected) {
					log.Error("failed to authenticate token", sl.Chain(err))
				} else {
					log.Info("token rejected", sl.Err(err))
				}
				response.WriteError(w, r, err)
				return
			}
			userID, err := claims.OperatorID()
			if err != nil {
				log.Info("token carries malformed user id", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), Claims, claims)
			ctx = context.WithValue(ctx, UserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom возвращает claims, сохранённые JWTMiddleware.
func ClaimsFrom(ctx context.Context) (*jwt.CustomClaims, bool) {
	c, ok := ctx.Value(Claims).(*jwt.CustomClaims)
	return c, ok
}

// UserIDFrom возвращает id оператора, сохранённый JWTMiddleware.
func UserIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserID).(uuid.UUID)
	return id, ok
}
