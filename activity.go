package accounts

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserRegistered    ActivityEventType = "user.registered"
	ActivityEventUserDeleted       ActivityEventType = "user.deleted"
	ActivityEventAuthorityAssigned ActivityEventType = "authority.assigned"
	ActivityEventAuthorityRemoved  ActivityEventType = "authority.removed"
	ActivityEventListEntryAdded    ActivityEventType = "list.entry.added"
	ActivityEventListEntryRemoved  ActivityEventType = "list.entry.removed"
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.succeeded"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failed"
)

// ActivityMetadataActor is the metadata key holding the username of the
// caller when the context carries claims.
const ActivityMetadataActor = "actor"

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Username   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity emits best effort. Sink failures are logged only.
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if actor := ActorFromContext(ctx); actor != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		}
		event.Metadata[ActivityMetadataActor] = actor
	}
	if err := sink.Record(ctx, event); err != nil {
		logger.Warn("activity sink error", "event", event.EventType, "error", err)
	}
}
