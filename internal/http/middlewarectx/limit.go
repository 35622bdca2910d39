package middlewarectx

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/trip-companion/internal/http/response"
)

// RateLimitMiddleware отклоняет запросы сверх лимита limiter с кодом 429
// и подсказывает клиенту в Retry-After, через сколько секунд повторить.
func RateLimitMiddleware(log *slog.Logger, limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				wait := retryAfter(delay)
				log.Warn("too many requests",
					slog.String("path", r.URL.Path),
					slog.String("retry_after", wait),
				)
				w.Header().Set("Retry-After", wait)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(delay time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(delay.Seconds()))))
}
