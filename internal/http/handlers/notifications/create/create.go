// Package create добавляет в ленту уведомление от приложения.
package create

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/models"
	"github.com/magabrotheeeer/trip-companion/internal/services/notification"
)

type Service interface {
	Add(event models.NotificationEvent) (models.Notification, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var event models.NotificationEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(event); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	n, err := h.service.Add(event)
	if err != nil {
		log.Error("failed to add notification", sl.Err(err))
		if errors.Is(err, notification.ErrUnknownType) || errors.Is(err, notification.ErrInvalidEvent) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not add notification"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(n))
}
