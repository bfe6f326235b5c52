// Package health отвечает на проверку живости сервиса.
package health

import (
	"net/http"
)

// Handler обработчик GET /health_check.
type Handler struct{}

// New создает новый Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Tags Health
// @Success 200
// @Router /health_check [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
