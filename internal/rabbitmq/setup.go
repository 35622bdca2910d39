package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/trip-companion/internal/config"
)

// ExchangeNotifications: direct-обменник событий уведомлений.
const ExchangeNotifications = "notifications"

// QueueConfig описывает очередь и её ключ привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// EventQueues возвращает очереди, из которых компаньон читает события.
func EventQueues(cfg config.RabbitMQ) []QueueConfig {
	return []QueueConfig{
		{QueueName: cfg.EventsQueue, RoutingKey: cfg.EventsRoutingKey},
	}
}

// SetupChannel открывает канал, объявляет обменник и привязывает очереди.
// prefetch ограничивает число неподтверждённых сообщений на канале.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig, prefetch int) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		ExchangeNotifications,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			ExchangeNotifications,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
