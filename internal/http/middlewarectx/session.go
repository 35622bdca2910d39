// Package middlewarectx содержит HTTP middleware компаньона: проверку
// активной сессии, ограничение частоты запросов, CORS и журнал запросов.
package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
)

// SessionService сообщает, есть ли активная сессия.
type SessionService interface {
	IsAuthenticated() bool
}

// RequireSession пропускает запрос дальше только при активной сессии,
// иначе отвечает 401.
func RequireSession(log *slog.Logger, session SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireSession"

			if !session.IsAuthenticated() {
				log.Warn("request without active session",
					slog.String("op", op),
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
