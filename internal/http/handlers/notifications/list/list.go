// Package list отдаёт ленту уведомлений и число непрочитанных.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
	"github.com/magabrotheeeer/trip-companion/internal/models"
)

type Service interface {
	List() []models.Notification
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
	render.JSON(w, r, response.StatusOKWithData(View(h.service.List())))
}

// View: представление ленты. Счётчик считается по тому же снимку.
func View(items []models.Notification) map[string]any {
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	if items == nil {
		items = []models.Notification{}
	}
	return map[string]any{
		"notifications": items,
		"unread_count":  unread,
	}
}
