// Package newsletters реализует публикацию выпуска из панели оператора.
//
// Если настроена очередь, выпуск ставится в неё и рассылается фоновым
// обработчиком. Иначе рассылка выполняется в рамках запроса.
package newsletters

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/newsletter/internal/http/response"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

// Request данные формы выпуска.
type Request struct {
	Title       string `json:"title" form:"title" validate:"required"`
	HTMLContent string `json:"html_content" form:"html_content" validate:"required"`
	TextContent string `json:"text_content" form:"text_content" validate:"required"`
}

// Dispatcher ставит выпуск в очередь или рассылает его сразу.
type Dispatcher interface {
	Dispatch(ctx context.Context, issue models.Issue) (queued bool, sent int, err error)
}

// Handler обрабатывает POST /admin/newsletters.
type Handler struct {
	log        *slog.Logger
	dispatcher Dispatcher
	validate   *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, dispatcher Dispatcher) *Handler {
	return &Handler{log: log, dispatcher: dispatcher, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Опубликовать выпуск из панели оператора
// @Tags Admin
// @Accept  x-www-form-urlencoded
// @Produce  json
// @Security BearerAuth
// @Param title formData string true "Заголовок"
// @Param html_content formData string true "HTML-версия"
// @Param text_content formData string true "Текстовая версия"
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response "Выпуск поставлен в очередь"
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/newsletters [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.newsletters"
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

	queued, sent, err := h.dispatcher.Dispatch(r.Context(), models.Issue{
		Title: req.Title,
		HTML:  req.HTMLContent,
		Text:  req.TextContent,
	})
	if err != nil {
		log.Error("failed to publish newsletter issue", slog.Int("sent", sent), sl.Chain(err))
		response.WriteError(w, r, err)
		return
	}

	if queued {
		log.Info("newsletter issue accepted for delivery")
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.OKWithData(map[string]any{"queued": true}))
		return
	}
	log.Info("newsletter issue published", slog.Int("sent", sent))
	render.JSON(w, r, response.OKWithData(map[string]any{"sent": sent}))
}
