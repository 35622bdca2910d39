// Package logout завершает сессию. Ответ всегда успешный: локальное
// состояние очищается даже при ошибке удалённого выхода.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
	"github.com/magabrotheeeer/trip-companion/internal/services/session"
)

type Service interface {
	Logout(ctx context.Context)
	Snapshot() session.Snapshot
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
	const op = "handlers.session.logout"

	h.service.Logout(r.Context())

	h.log.Info("session closed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.StatusOKWithData(h.service.Snapshot()))
}
