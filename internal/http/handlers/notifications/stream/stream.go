// Package stream транслирует снимки ленты уведомлений по Server-Sent Events.
//
// Сразу после подключения клиент получает текущий снимок, затем по снимку
// на каждое изменение. Медленный клиент получает только последний снимок.
// Поток закрывается при отключении клиента или по сигналу остановки.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/list"
	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/models"
	"github.com/magabrotheeeer/trip-companion/internal/services/notification"
)

const eventName = "notifications"

type Service interface {
	List() []models.Notification
	Subscribe(l notification.Listener) func()
}

type Handler struct {
	log     *slog.Logger
	service Service
	stop    <-chan struct{}
}

type Option func(*Handler)

// WithStop закрывает все открытые потоки, когда stop закрыт.
func WithStop(stop <-chan struct{}) Option {
	return func(h *Handler) {
		h.stop = stop
	}
}

func New(log *slog.Logger, service Service, opts ...Option) *Handler {
	h := &Handler{
		log:     log,
		service: service,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.stream"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc := http.NewResponseController(w)
	// Поток живёт дольше WriteTimeout сервера.
	_ = rc.SetWriteDeadline(time.Time{})

	updates := make(chan []models.Notification, 1)
	unsubscribe := h.service.Subscribe(func(items []models.Notification) {
		select {
		case updates <- items:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- items
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, h.service.List()); err != nil {
		log.Error("failed to write initial snapshot", sl.Err(err))
		return
	}
	log.Debug("stream opened")

	for {
		select {
		case <-r.Context().Done():
			log.Debug("stream closed")
			return
		case <-h.stop:
			log.Debug("stream stopped by server")
			return
		case items := <-updates:
			if err := writeEvent(w, rc, items); err != nil {
				log.Warn("failed to write snapshot", sl.Err(err))
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, items []models.Notification) error {
	data, err := json.Marshal(list.View(items))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName, data); err != nil {
		return err
	}
	return rc.Flush()
}
