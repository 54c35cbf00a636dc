package activitymap

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-accounts"
)

const (
	// MetadataKeyUsername stores the username the event was recorded for.
	MetadataKeyUsername = "username"
	// MetadataKeyActor is read to find who performed the action.
	MetadataKeyActor = accounts.ActivityMetadataActor
)

const (
	defaultChannel    = "accounts"
	defaultObjectType = "user"
	defaultActorID    = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel    string
	objectType string
}

// Normalize converts an accounts.ActivityEvent into a generic normalized shape.
// Authority events point at the authority, list events at the list and
// everything else at the user.
func Normalize(event accounts.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{channel: defaultChannel, objectType: defaultObjectType}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actor, _ := event.Metadata[MetadataKeyActor].(string)
	actorID := strings.TrimSpace(actor)
	if actorID == "" {
		actorID = strings.TrimSpace(event.Username)
	}
	if actorID == "" {
		actorID = defaultActorID
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	objectType, objectID := resolveObject(event, options)

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(options.channel),
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the channel of normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the object type of user level events.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

func resolveObject(event accounts.ActivityEvent, options normalizeOptions) (string, string) {
	objectType := strings.TrimSpace(options.objectType)
	objectID := strings.TrimSpace(event.Username)

	switch event.EventType {
	case accounts.ActivityEventAuthorityAssigned, accounts.ActivityEventAuthorityRemoved:
		objectType = "authority"
		if name, ok := event.Metadata["authority"].(string); ok {
			objectID = name
		}
	case accounts.ActivityEventListEntryAdded, accounts.ActivityEventListEntryRemoved:
		objectType = "list"
		category, _ := event.Metadata["category"].(string)
		list, _ := event.Metadata["list"].(string)
		if category != "" && list != "" {
			objectID = fmt.Sprintf("%s/%s.%s", event.Username, category, list)
		}
	}
	return objectType, objectID
}

// normalizeMetadata copies event metadata and records the username.
func normalizeMetadata(event accounts.ActivityEvent) map[string]any {
	username := strings.TrimSpace(event.Username)
	if len(event.Metadata) == 0 && username == "" {
		return nil
	}
	metadata := maps.Clone(event.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, exists := metadata[MetadataKeyUsername]; !exists && username != "" {
		metadata[MetadataKeyUsername] = username
	}
	return metadata
}
