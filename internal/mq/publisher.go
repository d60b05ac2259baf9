package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Pipedeck/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunStarted  MessageType = "run.started"
	MessageTypeRunFinished MessageType = "run.finished"
)

// Publisher публикует события запусков в RabbitMQ.
//
// Публикация — best effort: сбой публикации не должен влиять
// на жизненный цикл запуска (контроллер логирует и продолжает).
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunStartedPayload — payload события о начавшемся запуске.
type RunStartedPayload struct {
	RunID        string `json:"run_id"`
	Pipeline     string `json:"pipeline"`
	ExperimentID string `json:"experiment_id"`
}

// RunFinishedPayload — payload события о завершённом запуске.
type RunFinishedPayload struct {
	RunID    string           `json:"run_id"`
	Pipeline string           `json:"pipeline"`
	Status   domain.RunStatus `json:"status"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunStarted публикует событие о начавшемся запуске.
func (p *Publisher) PublishRunStarted(ctx context.Context, runID, pipeline, experimentID string) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeRunStarted,
		Payload: RunStartedPayload{
			RunID:        runID,
			Pipeline:     pipeline,
			ExperimentID: experimentID,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyStarted, msg)
}

// PublishRunFinished публикует событие о запуске, достигшем терминального статуса.
func (p *Publisher) PublishRunFinished(ctx context.Context, runID, pipeline string, status domain.RunStatus) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeRunFinished,
		Payload: RunFinishedPayload{
			RunID:    runID,
			Pipeline: pipeline,
			Status:   status,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyFinished, msg)
}
