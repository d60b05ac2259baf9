package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	// ExchangeRuns — события жизненного цикла запусков панели.
	ExchangeRuns Exchange = "pipedeck.runs"
)

// Queues — имена очередей.
const (
	// QueueRunEvents — поток событий запусков для внешних потребителей
	// (алёрты, аудит, дашборды).
	QueueRunEvents Queue = "runs.events"
)

// Routing keys.
const (
	RoutingKeyStarted  RoutingKey = "started"
	RoutingKeyFinished RoutingKey = "finished"
)

// SetupTopology объявляет exchanges, queues и bindings панели.
// Идемпотентна: повторное объявление существующей топологии безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.ExchangeDeclare(
			string(ExchangeRuns),
			"topic",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		); err != nil {
			return err
		}

		if _, err := ch.QueueDeclare(
			string(QueueRunEvents),
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return err
		}

		// Очередь событий получает и started, и finished.
		return ch.QueueBind(
			string(QueueRunEvents),
			"#",
			string(ExchangeRuns),
			false,
			nil,
		)
	})
}
