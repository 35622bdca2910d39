// Package apiclient реализует тонкий клиент удалённого API планировщика поездок.
//
// Клиент добавляет bearer-токен из хранилища токенов, кодирует тела в JSON,
// а при статусе вне 2xx возвращает *Error с текстом из поля detail ответа.
// Для ресурсов, которые могут быть ещё не созданы, 404 превращается в
// отсутствующее значение вместо ошибки. Повторов и backoff нет.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/trip-companion/internal/storage/tokenstore"
)

// TokenSource отдаёт текущий bearer-токен.
type TokenSource interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Client: HTTP-клиент удалённого API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        *slog.Logger
}

// New создаёт клиент с базовым адресом вида http://host/api/v1.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Error: ошибка удалённого API со статусом и текстом detail.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// StatusOf возвращает HTTP-статус ошибки удалённого API или 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, err
		}
		reader = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, ok, err := c.tokens.Get(ctx, tokenstore.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do выполняет запрос и декодирует успешный ответ в out (если out не nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	const op = "apiclient.do"

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w", op, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, raw)
		c.log.Error("api error",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", apiErr.Detail),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode %s %s: %w", op, method, path, err)
	}
	return nil
}

// doOptional работает как do, но 404 возвращает как (false, nil).
func (c *Client) doOptional(ctx context.Context, method, path string, out any) (bool, error) {
	err := c.do(ctx, method, path, nil, nil, out)
	if StatusOf(err) == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func parseError(status int, raw []byte) *Error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return &Error{Status: status, Detail: "Unknown error occurred"}
	}
	detail := bytes.TrimSpace(body.Detail)
	if len(detail) == 0 || string(detail) == "null" {
		return &Error{Status: status, Detail: fmt.Sprintf("HTTP error! status: %d", status)}
	}
	var text string
	if err := json.Unmarshal(detail, &text); err == nil {
		if text == "" {
			return &Error{Status: status, Detail: fmt.Sprintf("HTTP error! status: %d", status)}
		}
		return &Error{Status: status, Detail: text}
	}
	// 422 от валидатора бэкенда приходит массивом нарушений.
	return &Error{Status: status, Detail: string(detail)}
}

func pathID(id string) string {
	return url.PathEscape(id)
}
