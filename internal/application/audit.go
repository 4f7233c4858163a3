package application

import (
	"context"
	"expvar"
	"time"

	"github.com/sirupsen/logrus"
)

// Audit event types emitted on RBAC mutations.
const (
	EventRoleAssigned = "rbac.role_assigned"
	EventRoleRevoked  = "rbac.role_revoked"
	EventRoleCreated  = "rbac.role_created"
	EventRoleUpdated  = "rbac.role_updated"
	EventRoleDeleted  = "rbac.role_deleted"
	EventUserDeleted  = "rbac.user_deleted"
)

// AuditEvent is the message body published for every RBAC mutation.
type AuditEvent struct {
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	RoleID     string    `json:"role_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventType lets the publisher tag the message with its type.
func (e AuditEvent) EventType() string { return e.Type }

// EventPublisher is implemented by helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MutationCounts counts RBAC mutations by event type. It is served by the
// debug module under /debug/vars.
var MutationCounts = expvar.NewMap("rbac_mutations")

// publishAudit never fails the calling operation; delivery problems are logged.
func publishAudit(ctx context.Context, pub EventPublisher, logger *logrus.Logger, ev AuditEvent) {
	MutationCounts.Add(ev.Type, 1)
	if pub == nil {
		return
	}
	ev.ActorID = ActorFrom(ctx)
	ev.OccurredAt = time.Now().UTC()
	if err := pub.PublishJSON(ctx, ev); err != nil && logger != nil {
		logger.WithError(err).WithField("event", ev.Type).Warn("publish audit event failed")
	}
}
