// Package popup отдаёт уведомление, показываемое во всплывающем окне.
package popup

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
	"github.com/magabrotheeeer/trip-companion/internal/models"
)

type Service interface {
	Current() (models.Notification, bool)
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
	n, ok := h.service.Current()
	if !ok {
		render.JSON(w, r, response.Absent())
		return
	}
	render.JSON(w, r, response.StatusOKWithData(n))
}
