package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swarnim921/Smart-Resume/internal/logger"
)

const auditLogFile = "audit.log"

// AuditConsumer drains the audit queue into LogDir/audit.log, one line per
// event.
type AuditConsumer struct {
	URL    string
	Queue  string
	LogDir string
	Log    *slog.Logger
}

// Run keeps a consumer attached to the broker, reconnecting with backoff,
// until ctx is cancelled.
func (c *AuditConsumer) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("audit-consumer"))

	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("failed to dial broker", logger.Error(err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("consume loop ended, reconnecting", logger.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", logger.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				log.Warn("handle message failed", logger.Error(err))
				_ = d.Nack(false, false) // no requeue, a bad payload stays bad
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handle(body []byte) error {
	var ev RoleChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, auditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev RoleChangedEvent) string {
	from, to, actor := ev.FromRole, ev.ToRole, ev.Actor
	if from == "" {
		from = "-"
	}
	if to == "" {
		to = "-"
	}
	if actor == "" {
		actor = "self"
	}
	return fmt.Sprintf("[%s] Role change | source=%s | user_id=%s | email=%q | from=%s | to=%s | actor=%s\n",
		ev.ChangedAt.UTC().Format(time.RFC3339), ev.Source, ev.UserID, ev.Email, from, to, actor)
}
