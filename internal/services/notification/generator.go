package notification

import (
	"context"
	"time"

	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/models"
)

// syntheticEvents: фиксированный набор анонсов для генератора.
var syntheticEvents = []models.NotificationEvent{
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Concert Alert",
		Message: "Taylor Swift concert tickets are now available! Go buy tickets before they sell out.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Sports Event",
		Message: "Champions League final tickets are on sale! Don't miss this exciting match.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Music Festival",
		Message: "Coachella 2025 tickets are available now! Book your spot for the biggest music festival.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Theater Show",
		Message: "Hamilton tickets are now available! Experience the award-winning musical.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Comedy Show",
		Message: "Stand-up comedy night tickets are on sale! Get ready for a night of laughter.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Food Festival",
		Message: "International Food Festival tickets available! Taste cuisines from around the world.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Art Exhibition",
		Message: "Van Gogh immersive experience tickets on sale! Don't miss this unique art event.",
	},
	{
		Type:    models.NotificationTypeEvent,
		Title:   "Tech Conference",
		Message: "Tech Summit 2025 tickets are available! Join industry leaders and innovators.",
	},
}

// runGenerator после каждой случайной паузы публикует синтетическое событие
// и перепланирует себя с новой паузой.
func (f *Feed) runGenerator(ctx context.Context) {
	for {
		delay := f.nextDelay()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		event := f.pickEvent()
		if _, err := f.add(event, SourceSynthetic); err != nil {
			f.log.Error("failed to add synthetic notification", sl.Err(err))
		}
	}
}

// nextDelay равномерно выбирает паузу из [min, max).
func (f *Feed) nextDelay() time.Duration {
	lo, hi := f.opts.GeneratorMinDelay, f.opts.GeneratorMaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(f.randN(int64(hi-lo)))
}

// pickEvent выбирает событие равновероятно, с возвращением.
func (f *Feed) pickEvent() models.NotificationEvent {
	return syntheticEvents[f.randN(int64(len(syntheticEvents)))]
}
