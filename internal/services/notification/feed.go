// Package notification содержит ленту уведомлений: добавление, переходы
// прочитано/не прочитано, фоновый генератор синтетических событий,
// периодическое обновление строк давности и всплывающее уведомление.
//
// Лента упорядочена от новых к старым. Каждое изменение заменяет срез
// целиком (copy-on-write), ранее выданные снимки не меняются.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/lib/timeago"
	"github.com/magabrotheeeer/trip-companion/internal/models"
)

// ErrUnknownType возвращается для типа вне закрытого набора.
var ErrUnknownType = errors.New("unknown notification type")

// ErrInvalidEvent возвращается для события без заголовка или текста.
var ErrInvalidEvent = errors.New("invalid notification event")

// Source: источник уведомления.
type Source string

const (
	SourceApp       Source = "app"
	SourceSynthetic Source = "synthetic"
	SourceQueue     Source = "queue"
)

// Recorder принимает метрики созданных уведомлений.
type Recorder interface {
	NotificationCreated(source string)
}

// Options: настройки ленты.
type Options struct {
	GeneratorEnabled  bool
	GeneratorMinDelay time.Duration
	GeneratorMaxDelay time.Duration
	RefreshInterval   time.Duration
	RelabelDelay      time.Duration
	Recorder          Recorder
}

// Listener получает снимок ленты после каждого изменения.
// Снимок только для чтения. Синхронно вызывать мутаторы ленты из
// слушателя нельзя.
type Listener func([]models.Notification)

// Feed: лента уведомлений.
type Feed struct {
	log   *slog.Logger
	opts  Options
	now   func() time.Time
	randN func(n int64) int64
	newID func() string

	mu        sync.Mutex
	items     []models.Notification
	relabels  map[string]*time.Timer
	listeners map[int]Listener
	nextID    int
	closed    bool
	cancel    context.CancelFunc

	notifyMu  sync.Mutex
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewFeed создаёт пустую ленту. Фоновые задачи запускает Start.
func NewFeed(log *slog.Logger, opts Options) *Feed {
	return &Feed{
		log:       log,
		opts:      opts,
		now:       time.Now,
		randN:     rand.Int64N,
		newID:     newID,
		relabels:  make(map[string]*time.Timer),
		listeners: make(map[int]Listener),
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Add создаёт уведомление из события приложения.
func (f *Feed) Add(event models.NotificationEvent) (models.Notification, error) {
	return f.add(event, SourceApp)
}

// HandleEvent декодирует JSON-событие из брокера и добавляет его в ленту.
func (f *Feed) HandleEvent(body []byte) error {
	const op = "notification.HandleEvent"
	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		f.log.Error("failed to unmarshal event", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}
	if _, err := f.add(event, SourceQueue); err != nil {
		f.log.Error("rejected event", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *Feed) add(event models.NotificationEvent, source Source) (models.Notification, error) {
	if !event.Type.Valid() {
		return models.Notification{}, fmt.Errorf("%w: %q", ErrUnknownType, event.Type)
	}
	if event.Title == "" || event.Message == "" {
		return models.Notification{}, fmt.Errorf("%w: title and message are required", ErrInvalidEvent)
	}

	n := models.Notification{
		ID:        f.newID(),
		Type:      event.Type,
		Title:     event.Title,
		Message:   event.Message,
		Icon:      event.Icon,
		Time:      timeago.JustNow,
		Timestamp: f.now(),
		IsRead:    false,
	}

	f.mu.Lock()
	next := make([]models.Notification, 0, len(f.items)+1)
	next = append(next, n)
	next = append(next, f.items...)
	f.items = next
	if !f.closed && f.opts.RelabelDelay > 0 {
		id := n.ID
		f.relabels[id] = time.AfterFunc(f.opts.RelabelDelay, func() { f.relabel(id) })
	}
	f.mu.Unlock()

	if f.opts.Recorder != nil {
		f.opts.Recorder.NotificationCreated(string(source))
	}
	f.log.Debug("notification added",
		slog.String("id", n.ID),
		slog.String("type", string(n.Type)),
		slog.String("source", string(source)),
	)
	f.notify()
	return n, nil
}

// relabel один раз пересчитывает строку давности только что созданной записи.
func (f *Feed) relabel(id string) {
	f.mu.Lock()
	delete(f.relabels, id)
	idx := f.indexOf(id)
	if idx < 0 {
		f.mu.Unlock()
		return
	}
	label := timeago.Format(f.items[idx].Timestamp, f.now())
	changed := label != f.items[idx].Time
	if changed {
		next := clone(f.items)
		next[idx].Time = label
		f.items = next
	}
	f.mu.Unlock()

	if changed {
		f.notify()
	}
}

// MarkAsRead отмечает запись прочитанной. Возвращает false, если записи нет.
func (f *Feed) MarkAsRead(id string) bool {
	f.mu.Lock()
	idx := f.indexOf(id)
	if idx < 0 {
		f.mu.Unlock()
		return false
	}
	if f.items[idx].IsRead {
		f.mu.Unlock()
		return true
	}
	next := clone(f.items)
	next[idx].IsRead = true
	f.items = next
	f.mu.Unlock()

	f.notify()
	return true
}

// MarkAllAsRead отмечает прочитанными все записи.
func (f *Feed) MarkAllAsRead() {
	f.mu.Lock()
	if countUnread(f.items) == 0 {
		f.mu.Unlock()
		return
	}
	next := clone(f.items)
	for i := range next {
		next[i].IsRead = true
	}
	f.items = next
	f.mu.Unlock()

	f.notify()
}

// UnreadCount всегда считается фильтром по текущему списку.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return countUnread(f.items)
}

// List возвращает копию текущего списка, новые записи первыми.
func (f *Feed) List() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.items)
}

// Subscribe регистрирует слушателя изменений и возвращает функцию отписки.
func (f *Feed) Subscribe(l Listener) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// notify доставляет слушателям актуальный снимок. Доставки сериализованы,
// поэтому последним слушатель всегда видит последнее состояние.
func (f *Feed) notify() {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	snapshot := f.items
	listeners := make([]Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// refreshLabels пересчитывает строки давности всех записей, порядок не меняется.
func (f *Feed) refreshLabels() {
	f.mu.Lock()
	now := f.now()
	var next []models.Notification
	for i := range f.items {
		label := timeago.Format(f.items[i].Timestamp, now)
		if label == f.items[i].Time {
			continue
		}
		if next == nil {
			next = clone(f.items)
		}
		next[i].Time = label
	}
	if next != nil {
		f.items = next
	}
	f.mu.Unlock()

	if next != nil {
		f.notify()
	}
}

// Start запускает генератор синтетических уведомлений и ежеминутное
// обновление строк давности. Задачи живут до Close или отмены ctx.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.closed || f.cancel != nil {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	if f.opts.GeneratorEnabled {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.runGenerator(ctx)
		}()
	}
	if f.opts.RefreshInterval > 0 {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.runRefresher(ctx)
		}()
	}
}

func (f *Feed) runRefresher(ctx context.Context) {
	ticker := time.NewTicker(f.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.refreshLabels()
		}
	}
}

// Close останавливает фоновые задачи и отложенные пересчёты и дожидается их.
// Повторный вызов безопасен.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		for id, t := range f.relabels {
			t.Stop()
			delete(f.relabels, id)
		}
		cancel := f.cancel
		f.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		f.wg.Wait()
		f.log.Info("notification feed stopped")
	})
}

func (f *Feed) indexOf(id string) int {
	for i := range f.items {
		if f.items[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(items []models.Notification) []models.Notification {
	out := make([]models.Notification, len(items))
	copy(out, items)
	return out
}

func countUnread(items []models.Notification) int {
	n := 0
	for i := range items {
		if !items[i].IsRead {
			n++
		}
	}
	return n
}
