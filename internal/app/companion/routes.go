// Package companion собирает процесс компаньона: хранилище токена, клиент
// удалённого API, сессию, избранное, ленту уведомлений, приём событий из
// брокера и HTTP-маршруты слоя представления.
package companion

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	favcheck "github.com/magabrotheeeer/trip-companion/internal/http/handlers/favourites/check"
	favlist "github.com/magabrotheeeer/trip-companion/internal/http/handlers/favourites/list"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/favourites/toggle"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/health"
	notecreate "github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/create"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/dismiss"
	notelist "github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/list"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/popup"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/read"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/readall"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/notifications/stream"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/remote"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/session/login"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/session/logout"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/session/profile"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/session/state"
	"github.com/magabrotheeeer/trip-companion/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trip-companion/internal/services/favourites"
	"github.com/magabrotheeeer/trip-companion/internal/services/notification"
	"github.com/magabrotheeeer/trip-companion/internal/services/session"
)

// Deps: зависимости маршрутов.
type Deps struct {
	Session     *session.Store
	Favourites  *favourites.Store
	Feed        *notification.Feed
	Popup       *notification.Popup
	Remote      remote.Client
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	LoginRate   float64
	LoginBurst  int
	// StreamStop закрывается при остановке сервера и завершает SSE-потоки.
	StreamStop <-chan struct{}
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middlewarectx.SlogLogger(logger),
		middleware.Recoverer,
		middlewarectx.CORS(d.CORSOrigins),
	)

	loginLimiter := rate.NewLimiter(rate.Limit(d.LoginRate), d.LoginBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", state.New(logger, d.Session).ServeHTTP)
		r.With(middlewarectx.RateLimitMiddleware(logger, loginLimiter)).
			Post("/session/login", login.New(logger, d.Session).ServeHTTP)
		r.Post("/session/logout", logout.New(logger, d.Session).ServeHTTP)
		r.Patch("/session/profile", profile.New(logger, d.Session).ServeHTTP)

		r.Get("/favourites", favlist.New(logger, d.Favourites).ServeHTTP)
		r.Post("/favourites/{planID}/toggle", toggle.New(logger, d.Favourites).ServeHTTP)
		r.Get("/favourites/{planID}", favcheck.New(logger, d.Favourites).ServeHTTP)

		r.Get("/notifications", notelist.New(logger, d.Feed).ServeHTTP)
		r.Post("/notifications", notecreate.New(logger, d.Feed).ServeHTTP)
		r.Post("/notifications/read-all", readall.New(logger, d.Feed).ServeHTTP)
		r.Post("/notifications/{id}/read", read.New(logger, d.Feed).ServeHTTP)
		r.Get("/notifications/popup", popup.New(logger, d.Popup).ServeHTTP)
		r.Post("/notifications/popup/{id}/dismiss", dismiss.New(logger, d.Popup).ServeHTTP)
		r.Get("/notifications/stream", stream.New(logger, d.Feed, stream.WithStop(d.StreamStop)).ServeHTTP)

		// Сквозные вызовы удалённого API требуют активной сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireSession(logger, d.Session))
			remote.Register(r, logger, d.Remote, d.Feed)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
}
