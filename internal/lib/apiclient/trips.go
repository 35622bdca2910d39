package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/magabrotheeeer/trip-companion/internal/models"
)

// CreateTrip создаёт поездку. Тело передаётся бэкенду без изменений.
func (c *Client) CreateTrip(ctx context.Context, trip json.RawMessage) (*models.Trip, error) {
	var resp models.Trip
	if err := c.do(ctx, http.MethodPost, "/trips", nil, trip, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTrips возвращает страницу поездок пользователя.
func (c *Client) ListTrips(ctx context.Context, page, perPage int) (*models.TripList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var resp models.TripList
	if err := c.do(ctx, http.MethodGet, "/trips", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTrip возвращает поездку по идентификатору.
func (c *Client) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var resp models.Trip
	if err := c.do(ctx, http.MethodGet, "/trips/"+pathID(tripID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTrip частично обновляет поездку.
func (c *Client) UpdateTrip(ctx context.Context, tripID string, patch json.RawMessage) (*models.Trip, error) {
	var resp models.Trip
	if err := c.do(ctx, http.MethodPatch, "/trips/"+pathID(tripID), nil, patch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTrip удаляет поездку.
func (c *Client) DeleteTrip(ctx context.Context, tripID string) error {
	return c.do(ctx, http.MethodDelete, "/trips/"+pathID(tripID), nil, nil, nil)
}

// FinalizeTrip завершает планирование и запускает генерацию плана.
func (c *Client) FinalizeTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var resp models.Trip
	if err := c.do(ctx, http.MethodPost, "/trips/"+pathID(tripID)+"/finalize", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TripPlan возвращает план поездки или nil, если план ещё не создан.
func (c *Client) TripPlan(ctx context.Context, tripID string) (*models.TripPlan, error) {
	var plan models.TripPlan
	found, err := c.doOptional(ctx, http.MethodGet, "/trips/"+pathID(tripID)+"/plan", &plan)
	if err != nil || !found {
		return nil, err
	}
	return &plan, nil
}

// TripChecklist возвращает чек-лист поездки или nil, если он ещё не создан.
func (c *Client) TripChecklist(ctx context.Context, tripID string) (*models.TripChecklist, error) {
	var checklist models.TripChecklist
	found, err := c.doOptional(ctx, http.MethodGet, "/trips/"+pathID(tripID)+"/checklist", &checklist)
	if err != nil || !found {
		return nil, err
	}
	return &checklist, nil
}
