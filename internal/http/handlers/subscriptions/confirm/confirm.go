// Package confirm реализует HTTP-обработчик подтверждения подписки по
// ссылке из письма.
package confirm

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/newsletter/internal/http/response"
	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
)

// TokenParam имя параметра запроса с токеном подтверждения.
const TokenParam = "subscription_token"

// Service описывает интерфейс подтверждения подписки.
type Service interface {
	Confirm(ctx context.Context, tokenRaw string) error
}

// Handler обрабатывает GET /subscriptions/confirm.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подтвердить подписку
// @Tags Subscriptions
// @Produce  json
// @Param subscription_token query string true "Токен из письма"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный токен"
// @Failure 401 {object} response.ErrorResponse "Неизвестный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/confirm [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.confirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	if !query.Has(TokenParam) {
		log.Info("subscription token is missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing subscription_token parameter"))
		return
	}

	if err := h.service.Confirm(r.Context(), query.Get(TokenParam)); err != nil {
		if apperr.Is(err, apperr.KindUnexpected) {
			log.Error("failed to confirm subscription", sl.Chain(err))
		} else {
			log.Info("confirmation rejected", sl.Err(err))
		}
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscription confirmed")
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
