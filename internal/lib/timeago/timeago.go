// Package timeago форматирует давность события в человекочитаемую строку
// для отображения в ленте уведомлений.
package timeago

import (
	"fmt"
	"time"
)

// JustNow: подпись для событий младше минуты.
const JustNow = "Just now"

// Format возвращает строку давности события ts относительно now.
// Границы: меньше минуты дают "Just now", меньше часа дают минуты,
// меньше суток дают часы, иначе дни. Будущие метки считаются "Just now".
func Format(ts, now time.Time) string {
	seconds := int64(now.Sub(ts) / time.Second)

	switch {
	case seconds < 60:
		return JustNow
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	default:
		return plural(seconds/86400, "day")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
