// Package toggle переключает принадлежность плана избранному.
package toggle

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
)

type Service interface {
	Toggle(planID int) bool
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
	const op = "handlers.favourites.toggle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	planID, err := strconv.Atoi(chi.URLParam(r, "planID"))
	if err != nil {
		log.Error("failed to decode plan id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid plan id"))
		return
	}

	favourite := h.service.Toggle(planID)
	log.Debug("favourite toggled", slog.Int("plan_id", planID), slog.Bool("favourite", favourite))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plan_id":   planID,
		"favourite": favourite,
	}))
}
