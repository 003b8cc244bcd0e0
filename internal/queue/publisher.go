package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swarnim921/Smart-Resume/internal/logger"
)

// Publisher emits audit events. Failures are returned so callers can log
// them, but a failed publish never undoes the change it describes.
type Publisher interface {
	PublishRoleChanged(ctx context.Context, ev RoleChangedEvent) error
}

// AMQPPublisher publishes each event on a short-lived connection to a
// durable queue.
type AMQPPublisher struct {
	URL   string
	Queue string
	Log   *slog.Logger
}

func NewAMQPPublisher(url, queue string, log *slog.Logger) *AMQPPublisher {
	if log == nil {
		log = logger.Discard()
	}
	return &AMQPPublisher{URL: url, Queue: queue, Log: log}
}

func (p *AMQPPublisher) PublishRoleChanged(ctx context.Context, ev RoleChangedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", logger.Error(err), logger.Component("audit-publisher"))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", logger.Error(err), logger.Component("audit-publisher"))
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", logger.Error(err), logger.Component("audit-publisher"))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", logger.Error(err), logger.Component("audit-publisher"))
		return err
	}
	return nil
}

// LogPublisher writes events to the application log. It is used when no
// broker is configured.
type LogPublisher struct{ Log *slog.Logger }

func (p LogPublisher) PublishRoleChanged(_ context.Context, ev RoleChangedEvent) error {
	log := p.Log
	if log == nil {
		log = logger.Discard()
	}
	log.Info("role changed",
		logger.UserID(ev.UserID),
		logger.Email(ev.Email),
		slog.String("from", ev.FromRole),
		slog.String("to", ev.ToRole),
		slog.String("source", ev.Source),
		slog.String("actor", ev.Actor),
		logger.Component("audit"),
	)
	return nil
}
