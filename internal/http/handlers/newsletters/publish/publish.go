// Package publish реализует HTTP-обработчик публикации выпуска рассылки.
//
// Доступ защищён HTTP Basic: имя и пароль оператора проверяются до
// разбора тела запроса.
package publish

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/newsletter/internal/http/response"
	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

// Content тело выпуска.
type Content struct {
	HTML string `json:"html" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// Request JSON-тело запроса.
type Request struct {
	Title   string  `json:"title" validate:"required"`
	Content Content `json:"content"`
}

// Authenticator проверяет учётные данные оператора.
type Authenticator interface {
	ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error)
}

// Broadcaster рассылает выпуск.
type Broadcaster interface {
	Publish(ctx context.Context, issue models.Issue) (int, error)
}

// Handler обрабатывает POST /newsletters.
type Handler struct {
	log         *slog.Logger
	auth        Authenticator
	broadcaster Broadcaster
	validate    *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, auth Authenticator, broadcaster Broadcaster) *Handler {
	return &Handler{
		log:         log,
		auth:        auth,
		broadcaster: broadcaster,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Опубликовать выпуск
// @Description Отправляет выпуск всем подтверждённым подписчикам.
// @Tags Newsletters
// @Accept  json
// @Produce  json
// @Security BasicAuth
// @Param request body Request true "Выпуск"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /newsletters [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletters.publish"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := middlewarectx.BasicAuth(r, h.auth)
	if err != nil {
		if apperr.Is(err, apperr.KindUnexpected) {
			log.Error("failed to validate credentials", sl.Chain(err))
			response.WriteError(w, r, err)
			return
		}
		log.Info("publish rejected", sl.Err(err))
		w.Header().Set("WWW-Authenticate", middlewarectx.BasicRealm)
		response.WriteError(w, r, err)
		return
	}
	log = log.With(slog.String("user_id", userID.String()))

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	sent, err := h.broadcaster.Publish(r.Context(), models.Issue{
		Title: req.Title,
		HTML:  req.Content.HTML,
		Text:  req.Content.Text,
	})
	if err != nil {
		log.Error("failed to publish newsletter issue", slog.Int("sent", sent), sl.Chain(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("newsletter issue published", slog.Int("sent", sent))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"sent": sent,
	}))
}
