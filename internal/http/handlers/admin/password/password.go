// Package password реализует смену пароля оператора.
package password

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
)

// Request данные формы смены пароля.
type Request struct {
	CurrentPassword  string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword      string `json:"new_password" form:"new_password" validate:"required"`
	NewPasswordCheck string `json:"new_password_check" form:"new_password_check" validate:"required,eqfield=NewPassword"`
}

// Service меняет пароль оператора.
type Service interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error
}

// Handler обрабатывает POST /admin/password.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Сменить пароль
// @Description Новый пароль должен быть длиннее 12 и короче 129 символов.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Текущий и новый пароль"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.password"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

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

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if apperr.Is(err, apperr.KindUnexpected) {
			log.Error("failed to change password", sl.Chain(err))
		} else {
			log.Info("password change rejected", sl.Err(err))
		}
		response.WriteError(w, r, err)
		return
	}

	log.Info("password changed", slog.String("user_id", userID.String()))
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
