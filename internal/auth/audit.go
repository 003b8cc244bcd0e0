package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/logger"
	"github.com/swarnim921/Smart-Resume/internal/model"
	"github.com/swarnim921/Smart-Resume/internal/queue"
)

// auditor wraps a queue.Publisher. Publishing is best effort: a failed
// publish is logged and the operation it describes stands.
type auditor struct {
	pub queue.Publisher
	log *slog.Logger
	now func() time.Time
}

func (a auditor) roleChanged(ctx context.Context, u model.User, from model.Role, source, actor string) {
	if a.pub == nil {
		return
	}
	ev := queue.RoleChangedEvent{
		UserID:    u.ID,
		Email:     u.Email,
		FromRole:  from.String(),
		ToRole:    u.Role.String(),
		Source:    source,
		Actor:     actor,
		ChangedAt: a.now().UTC(),
	}
	if err := a.pub.PublishRoleChanged(ctx, ev); err != nil {
		a.log.Warn("publish role change failed", logger.Error(err), logger.Email(u.Email), slog.String("source", source))
	}
}

func (a auditor) removed(ctx context.Context, u model.User, actor string) {
	if a.pub == nil {
		return
	}
	ev := queue.RoleChangedEvent{
		UserID:    u.ID,
		Email:     u.Email,
		FromRole:  u.Role.String(),
		Source:    queue.SourceDelete,
		Actor:     actor,
		ChangedAt: a.now().UTC(),
	}
	if err := a.pub.PublishRoleChanged(ctx, ev); err != nil {
		a.log.Warn("publish account removal failed", logger.Error(err), logger.Email(u.Email))
	}
}
