// Package check сообщает, находится ли план в избранном.
package check

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
)

type Service interface {
	IsFavourite(planID int) bool
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
	planID, err := strconv.Atoi(chi.URLParam(r, "planID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid plan id"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plan_id":   planID,
		"favourite": h.service.IsFavourite(planID),
	}))
}
