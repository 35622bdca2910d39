package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
)

// ErrDiscard оборачивает ошибки обработчика, после которых сообщение
// не имеет смысла возвращать в очередь.
var ErrDiscard = errors.New("discard message")

// ConsumerMessage запускает потребителя очереди. Не более concurrency
// сообщений обрабатываются одновременно. Успешно обработанные сообщения
// подтверждаются, при ошибке обработчика возвращаются в очередь, кроме
// ошибок с ErrDiscard: такие сообщения отбрасываются.
// Возвращаемый канал закрывается, когда потребитель остановлен и все
// начатые обработчики завершились.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, concurrency int, log *slog.Logger, handler func([]byte) error) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))
	done := make(chan struct{})
	sem := make(chan struct{}, max(concurrency, 1))

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(done)
		}()

		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed")
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					err := handler(d.Body)
					if errors.Is(err, ErrDiscard) {
						log.Warn("handler rejected message, dropping", sl.Err(err))
						if nackErr := d.Nack(false, false); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if err != nil {
						log.Warn("handler failed, requeueing", sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done, nil
}
