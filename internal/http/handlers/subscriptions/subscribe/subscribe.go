// Package subscribe реализует HTTP-обработчик регистрации подписчика.
//
// Handler принимает форму с полями name и email и передаёт их сервису
// подписок. Проверка полей выполняется в сервисе.
package subscribe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/newsletter/internal/http/response"
	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/services/subscription"
)

// Request данные формы подписки.
type Request struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
}

// Service описывает интерфейс регистрации подписчика.
type Service interface {
	Subscribe(ctx context.Context, nameRaw, emailRaw string) (subscription.Result, error)
}

// Handler обрабатывает POST /subscriptions.
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
// @Summary Подписаться на рассылку
// @Description Регистрирует подписчика и отправляет письмо со ссылкой подтверждения.
// @Tags Subscriptions
// @Accept  x-www-form-urlencoded
// @Produce  json
// @Param name formData string true "Имя подписчика"
// @Param email formData string true "Адрес подписчика"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректные имя или адрес"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.subscribe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.Decode(r, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log = log.With(slog.String("subscriber_email", req.Email), slog.String("subscriber_name", req.Name))

	if _, err := h.service.Subscribe(r.Context(), req.Name, req.Email); err != nil {
		if apperr.Is(err, apperr.KindUnexpected) {
			log.Error("failed to subscribe", sl.Chain(err))
		} else {
			log.Info("subscription rejected", sl.Err(err))
		}
		response.WriteError(w, r, err)
		return
	}

	log.Info("new subscriber has been saved")
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
