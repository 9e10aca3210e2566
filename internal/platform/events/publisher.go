// Package events publishes moderation events to NATS JetStream.
// Delivery is fire-and-forget: a lost event never fails the operation that produced it.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Stream is the JetStream stream that captures every moderation subject.
const Stream = "BLOG_MODERATION"

const (
	SubjectAll              = "blog.moderation.>"
	SubjectReportCreated    = "blog.moderation.report_created"
	SubjectReportReviewed   = "blog.moderation.report_reviewed"
	SubjectCommentBlocked   = "blog.moderation.comment_blocked"
	SubjectCommentUnblocked = "blog.moderation.comment_unblocked"
)

type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	ActorID    string         `json:"actor_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher is safe to use as a nil pointer or with a nil JetStream context;
// both are no-ops.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
	now func() time.Time
}

func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log, now: time.Now}
}

// Encode builds the wire payload for an event.
func (p *Publisher) Encode(eventName, actorID string, props map[string]any) ([]byte, error) {
	now := time.Now
	if p != nil && p.now != nil {
		now = p.now
	}
	return json.Marshal(Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		ActorID:    actorID,
		OccurredAt: now().UTC(),
		Properties: props,
	})
}

func (p *Publisher) Publish(subject, eventName, actorID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	data, err := p.Encode(eventName, actorID, props)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
