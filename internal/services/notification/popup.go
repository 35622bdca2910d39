package notification

import (
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/trip-companion/internal/models"
)

// Popup показывает самое свежее непрочитанное уведомление в течение
// display, после чего отмечает его прочитанным.
type Popup struct {
	feed    *Feed
	display time.Duration
	log     *slog.Logger

	mu          sync.Mutex
	displayedID string
	timer       *time.Timer
	closed      bool
	unsubscribe func()
}

// NewPopup подписывается на ленту и сразу подхватывает её текущее состояние.
func NewPopup(feed *Feed, display time.Duration, log *slog.Logger) *Popup {
	p := &Popup{
		feed:    feed,
		display: display,
		log:     log,
	}
	p.unsubscribe = feed.Subscribe(p.onChange)
	p.onChange(feed.List())
	return p
}

func (p *Popup) onChange(items []models.Notification) {
	var latest *models.Notification
	for i := range items {
		if !items[i].IsRead {
			latest = &items[i]
			break
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if latest == nil {
		p.stopTimer()
		p.displayedID = ""
		return
	}
	if latest.ID == p.displayedID {
		return
	}

	p.stopTimer()
	id := latest.ID
	p.displayedID = id
	p.timer = time.AfterFunc(p.display, func() { p.expire(id) })
	p.log.Debug("popup shown", slog.String("id", id))
}

// expire вызывается таймером показа. Отметка прочитанным приводит к
// повторному выбору через onChange.
func (p *Popup) expire(id string) {
	p.mu.Lock()
	if p.closed || p.displayedID != id {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.mu.Unlock()

	p.feed.MarkAsRead(id)
}

// Current возвращает показываемое уведомление, если оно ещё не прочитано.
func (p *Popup) Current() (models.Notification, bool) {
	p.mu.Lock()
	id := p.displayedID
	p.mu.Unlock()

	if id == "" {
		return models.Notification{}, false
	}
	for _, n := range p.feed.List() {
		if n.ID == id {
			return n, !n.IsRead
		}
	}
	return models.Notification{}, false
}

// Dismiss закрывает уведомление досрочно. Возвращает false, если его нет в ленте.
func (p *Popup) Dismiss(id string) bool {
	p.mu.Lock()
	if p.displayedID == id {
		p.stopTimer()
		p.displayedID = ""
	}
	p.mu.Unlock()

	return p.feed.MarkAsRead(id)
}

// Close останавливает таймер и отписывается от ленты.
func (p *Popup) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.stopTimer()
	p.displayedID = ""
	p.mu.Unlock()

	p.unsubscribe()
}

func (p *Popup) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
