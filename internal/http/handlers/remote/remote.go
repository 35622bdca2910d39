// Package remote реализует сквозные обработчики к удалённому API
// планировщика поездок.
//
// Каждый обработчик вызывает одну функцию клиента и заворачивает её
// результат в стандартный ответ. Ошибка удалённого API отдаётся с его
// статусом и текстом detail. Для ресурсов, которые могут быть ещё не
// созданы, отсутствие отдаётся как 200 с "data": null.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
	"github.com/magabrotheeeer/trip-companion/internal/lib/apiclient"
	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/models"
)

// ErrBadRequest помечает ошибки разбора входящего запроса.
var ErrBadRequest = errors.New("bad request")

// Call выполняет удалённый вызов для входящего запроса.
type Call func(r *http.Request) (any, error)

// Notifier принимает события приложения для ленты уведомлений.
type Notifier interface {
	Add(event models.NotificationEvent) (models.Notification, error)
}

// Handler: сквозной обработчик одного удалённого вызова.
type Handler struct {
	log      *slog.Logger
	name     string
	call     Call
	status   int
	notifier Notifier
	notice   func(result any) (models.NotificationEvent, bool)
}

// Option настраивает Handler.
type Option func(*Handler)

// WithStatus задаёт код успешного ответа вместо 200.
func WithStatus(code int) Option {
	return func(h *Handler) {
		h.status = code
	}
}

// WithNotice после успешного вызова публикует событие, построенное по результату.
func WithNotice(notifier Notifier, build func(result any) (models.NotificationEvent, bool)) Option {
	return func(h *Handler) {
		h.notifier = notifier
		h.notice = build
	}
}

// New создаёт обработчик. name используется в журнале.
func New(log *slog.Logger, name string, call Call, opts ...Option) *Handler {
	h := &Handler{
		log:    log,
		name:   name,
		call:   call,
		status: http.StatusOK,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.remote"

	log := h.log.With(
		slog.String("op", op),
		slog.String("call", h.name),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.call(r)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}

	if absent(result) {
		log.Debug("remote resource absent")
		render.JSON(w, r, response.Absent())
		return
	}

	if h.notice != nil {
		if event, ok := h.notice(result); ok {
			if _, err := h.notifier.Add(event); err != nil {
				log.Error("failed to publish notification", sl.Err(err))
			}
		}
	}

	render.Status(r, h.status)
	render.JSON(w, r, response.StatusOKWithData(result))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var apiErr *apiclient.Error
	switch {
	case errors.Is(err, ErrBadRequest):
		log.Warn("invalid request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
	case errors.As(err, &apiErr):
		log.Warn("remote call failed", slog.Int("status", apiErr.Status), sl.Err(err))
		render.Status(r, apiErr.Status)
		render.JSON(w, r, response.Error(apiErr.Detail))
	default:
		log.Error("remote call failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("remote service unavailable"))
	}
}

// absent сообщает, что вызов вернул отсутствующее значение: nil,
// nil-указатель или пустой json.RawMessage.
func absent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// Body читает тело запроса как JSON без разбора.
func Body(r *http.Request) (json.RawMessage, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid request body", ErrBadRequest)
	}
	return raw, nil
}
