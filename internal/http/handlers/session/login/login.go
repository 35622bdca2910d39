// Package login реализует HTTP-обработчик входа по имени пользователя.
//
// Имя проверяется валидатором, затем сессия пробует вход и, при неудаче,
// регистрацию. Если не удалось ни то, ни другое, клиент получает 401.
package login

import (
	"context"
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
	"github.com/magabrotheeeer/trip-companion/internal/services/session"
)

// Request: структура входных данных для входа.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
}

// Service описывает операции сессии, нужные обработчику.
type Service interface {
	Login(ctx context.Context, username string) (models.UserProfile, error)
	Snapshot() session.Snapshot
}

// Handler обрабатывает HTTP-запросы на вход.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if _, err := h.service.Login(r.Context(), req.Username); err != nil {
		if errors.Is(err, session.ErrUnableToAuthenticate) {
			log.Warn("login failed", slog.String("username", req.Username), sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(session.ErrUnableToAuthenticate.Error()))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("login success", slog.String("username", req.Username))
	render.JSON(w, r, response.StatusOKWithData(h.service.Snapshot()))
}
