package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Ответы поиска, ранжирования и гидов принадлежат бэкенду и отдаются как есть.

func (c *Client) raw(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.do(ctx, method, path, query, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) SearchFlights(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/flights/search", query, nil)
}

func (c *Client) RankFlights(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/flights/rank", nil, body)
}

func (c *Client) SelectFlight(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/flights/select", nil, body)
}

func (c *Client) SearchHotels(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/hotels/search", query, nil)
}

func (c *Client) RankHotels(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/hotels/rank", nil, body)
}

func (c *Client) SelectHotel(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/hotels/select", nil, body)
}

func (c *Client) SearchVenues(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/entertainment/search", nil, body)
}

func (c *Client) RankVenues(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/entertainment/rank", nil, body)
}

func (c *Client) SelectVenues(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/entertainment/select", nil, body)
}

func (c *Client) EntertainmentSelections(ctx context.Context, tripID string) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/entertainment/"+pathID(tripID)+"/selections", nil, nil)
}

// CultureGuide генерирует культурный гид для поездки.
func (c *Client) CultureGuide(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/culture/guide", nil, body)
}

// SavedCultureGuide возвращает сохранённый гид или nil, если его ещё нет.
func (c *Client) SavedCultureGuide(ctx context.Context, tripID string) (json.RawMessage, error) {
	var resp json.RawMessage
	found, err := c.doOptional(ctx, http.MethodGet, "/culture/guide/"+pathID(tripID), &resp)
	if err != nil || !found {
		return nil, err
	}
	return resp, nil
}
