// Package dismiss досрочно закрывает всплывающее уведомление.
package dismiss

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
)

type Service interface {
	Dismiss(id string) bool
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.service.Dismiss(id) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("notification not found"))
		return
	}
	render.JSON(w, r, response.OK())
}
