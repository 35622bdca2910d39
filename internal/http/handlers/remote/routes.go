package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/trip-companion/internal/models"
)

const (
	defaultPage    = 1
	defaultPerPage = 20
)

// Client: вызовы удалённого API, доступные через сквозные обработчики.
type Client interface {
	CreateTrip(ctx context.Context, trip json.RawMessage) (*models.Trip, error)
	ListTrips(ctx context.Context, page, perPage int) (*models.TripList, error)
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	UpdateTrip(ctx context.Context, tripID string, patch json.RawMessage) (*models.Trip, error)
	DeleteTrip(ctx context.Context, tripID string) error
	FinalizeTrip(ctx context.Context, tripID string) (*models.Trip, error)
	TripPlan(ctx context.Context, tripID string) (*models.TripPlan, error)
	TripChecklist(ctx context.Context, tripID string) (*models.TripChecklist, error)

	SearchFlights(ctx context.Context, query url.Values) (json.RawMessage, error)
	RankFlights(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	SelectFlight(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	SearchHotels(ctx context.Context, query url.Values) (json.RawMessage, error)
	RankHotels(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	SelectHotel(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	SearchVenues(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	RankVenues(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	SelectVenues(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	EntertainmentSelections(ctx context.Context, tripID string) (json.RawMessage, error)
	CultureGuide(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	SavedCultureGuide(ctx context.Context, tripID string) (json.RawMessage, error)
}

// Register регистрирует сквозные маршруты поездок и планировщика.
// Создание и завершение поездки публикуют уведомление типа trip.
func Register(r chi.Router, log *slog.Logger, c Client, notifier Notifier) {
	tripID := func(r *http.Request) string { return chi.URLParam(r, "tripID") }

	withBody := func(fn func(ctx context.Context, body json.RawMessage) (json.RawMessage, error)) Call {
		return func(r *http.Request) (any, error) {
			body, err := Body(r)
			if err != nil {
				return nil, err
			}
			return fn(r.Context(), body)
		}
	}
	withQuery := func(fn func(ctx context.Context, query url.Values) (json.RawMessage, error)) Call {
		return func(r *http.Request) (any, error) {
			return fn(r.Context(), r.URL.Query())
		}
	}

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", New(log, "trips.create", func(r *http.Request) (any, error) {
			body, err := Body(r)
			if err != nil {
				return nil, err
			}
			return c.CreateTrip(r.Context(), body)
		}, WithStatus(http.StatusCreated), WithNotice(notifier, tripCreated)).ServeHTTP)

		r.Get("/", New(log, "trips.list", func(r *http.Request) (any, error) {
			page, err := intParam(r, "page", defaultPage)
			if err != nil {
				return nil, err
			}
			perPage, err := intParam(r, "per_page", defaultPerPage)
			if err != nil {
				return nil, err
			}
			return c.ListTrips(r.Context(), page, perPage)
		}).ServeHTTP)

		r.Get("/{tripID}", New(log, "trips.get", func(r *http.Request) (any, error) {
			return c.GetTrip(r.Context(), tripID(r))
		}).ServeHTTP)

		r.Patch("/{tripID}", New(log, "trips.update", func(r *http.Request) (any, error) {
			body, err := Body(r)
			if err != nil {
				return nil, err
			}
			return c.UpdateTrip(r.Context(), tripID(r), body)
		}).ServeHTTP)

		r.Delete("/{tripID}", New(log, "trips.delete", func(r *http.Request) (any, error) {
			if err := c.DeleteTrip(r.Context(), tripID(r)); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		}).ServeHTTP)

		r.Post("/{tripID}/finalize", New(log, "trips.finalize", func(r *http.Request) (any, error) {
			return c.FinalizeTrip(r.Context(), tripID(r))
		}, WithNotice(notifier, tripFinalized)).ServeHTTP)

		r.Get("/{tripID}/plan", New(log, "trips.plan", func(r *http.Request) (any, error) {
			return c.TripPlan(r.Context(), tripID(r))
		}).ServeHTTP)

		r.Get("/{tripID}/checklist", New(log, "trips.checklist", func(r *http.Request) (any, error) {
			return c.TripChecklist(r.Context(), tripID(r))
		}).ServeHTTP)
	})

	r.Get("/flights/search", New(log, "flights.search", withQuery(c.SearchFlights)).ServeHTTP)
	r.Post("/flights/rank", New(log, "flights.rank", withBody(c.RankFlights)).ServeHTTP)
	r.Post("/flights/select", New(log, "flights.select", withBody(c.SelectFlight)).ServeHTTP)

	r.Get("/hotels/search", New(log, "hotels.search", withQuery(c.SearchHotels)).ServeHTTP)
	r.Post("/hotels/rank", New(log, "hotels.rank", withBody(c.RankHotels)).ServeHTTP)
	r.Post("/hotels/select", New(log, "hotels.select", withBody(c.SelectHotel)).ServeHTTP)

	r.Post("/entertainment/search", New(log, "entertainment.search", withBody(c.SearchVenues)).ServeHTTP)
	r.Post("/entertainment/rank", New(log, "entertainment.rank", withBody(c.RankVenues)).ServeHTTP)
	r.Post("/entertainment/select", New(log, "entertainment.select", withBody(c.SelectVenues)).ServeHTTP)
	r.Get("/entertainment/{tripID}/selections", New(log, "entertainment.selections", func(r *http.Request) (any, error) {
		return c.EntertainmentSelections(r.Context(), tripID(r))
	}).ServeHTTP)

	r.Post("/culture/guide", New(log, "culture.guide", withBody(c.CultureGuide)).ServeHTTP)
	r.Get("/culture/guide/{tripID}", New(log, "culture.saved", func(r *http.Request) (any, error) {
		return c.SavedCultureGuide(r.Context(), tripID(r))
	}).ServeHTTP)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, name)
	}
	return v, nil
}

func tripCreated(result any) (models.NotificationEvent, bool) {
	trip, ok := result.(*models.Trip)
	if !ok {
		return models.NotificationEvent{}, false
	}
	return models.NotificationEvent{
		Type:    models.NotificationTrip,
		Title:   "Trip created",
		Message: fmt.Sprintf("Your trip from %s to %s has been created.", trip.FromCity, trip.ToCity),
	}, true
}

func tripFinalized(result any) (models.NotificationEvent, bool) {
	trip, ok := result.(*models.Trip)
	if !ok {
		return models.NotificationEvent{}, false
	}
	return models.NotificationEvent{
		Type:    models.NotificationTrip,
		Title:   "Trip finalized",
		Message: fmt.Sprintf("Your itinerary for %s is being prepared.", trip.ToCity),
	}, true
}
