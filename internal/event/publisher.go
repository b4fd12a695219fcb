package event

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of the amqp channel the publisher needs.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes transaction events as JSON messages on a
// topic exchange, routed by event type.
type AMQPPublisher struct {
	channel  AMQPChannel
	exchange string
}

func NewAMQPPublisher(channel AMQPChannel, exchange string) (*AMQPPublisher, error) {
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &AMQPPublisher{
		channel:  channel,
		exchange: exchange,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev TransactionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.TransactionID,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
}

// LogPublisher writes events to the log only. Used when no broker is
// configured, and in tests.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev TransactionEvent) error {
	p.logger.Info("Transaction event",
		"type", ev.Type,
		"transaction_id", ev.TransactionID,
		"status", ev.Status,
		"posting_status", ev.PostingStatus)
	return nil
}
