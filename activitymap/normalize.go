// Package activitymap flattens session activity events into a shape that
// audit logs and queues can store without knowing authclient types.
package activitymap

import (
	"context"
	"maps"
	"strings"
	"time"

	authclient "github.com/goliatone/go-auth-client"
)

// MetadataKeyRole stores the role carried by the event.
const MetadataKeyRole = "role"

const (
	defaultChannel    = "session"
	defaultObjectType = "credential"
	defaultActor      = "anonymous"
)

// Record is a transport agnostic activity entry.
type Record struct {
	Actor      string         `json:"actor"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
	now           func() time.Time
}

// WithChannel overrides the channel of produced records.
func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

// WithObjectType overrides the object type of produced records.
func WithObjectType(objectType string) Option {
	return func(o *options) {
		o.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor used when the event has no username,
// e.g. an invalid stored credential.
func WithActorFallback(actor string) Option {
	return func(o *options) {
		if actor = strings.TrimSpace(actor); actor != "" {
			o.actorFallback = actor
		}
	}
}

// WithClock sets the time used for events without OccurredAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Normalize converts an authclient.ActivityEvent into a Record.
func Normalize(event authclient.ActivityEvent, opts ...Option) Record {
	o := options{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActor,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	actor := strings.TrimSpace(event.Username)
	if actor == "" {
		actor = o.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = o.now()
	}

	return Record{
		Actor:      actor,
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		Channel:    o.channel,
		Metadata:   metadata(event),
		OccurredAt: occurredAt.UTC(),
	}
}

// Sink returns an ActivitySink that normalizes every event and hands the
// record to fn.
func Sink(fn func(Record) error, opts ...Option) authclient.ActivitySink {
	return authclient.ActivitySinkFunc(func(_ context.Context, event authclient.ActivityEvent) error {
		if fn == nil {
			return nil
		}
		return fn(Normalize(event, opts...))
	})
}

func metadata(event authclient.ActivityEvent) map[string]any {
	var out map[string]any
	if len(event.Metadata) > 0 {
		out = maps.Clone(event.Metadata)
	}

	if event.Role != "" {
		if out == nil {
			out = map[string]any{}
		}
		if _, exists := out[MetadataKeyRole]; !exists {
			out[MetadataKeyRole] = event.Role.String()
		}
	}

	return out
}
