package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPublish_NilReceiverIsNoop(t *testing.T) {
	var p *Publisher
	p.Publish(SubjectCommentBlocked, "comment_blocked", "admin-1", nil)
}

func TestPublish_NilStreamIsNoop(t *testing.T) {
	New(nil, nil).Publish(SubjectReportCreated, "report_created", "u1", map[string]any{"report_id": 1})
}

func TestEncode_Envelope(t *testing.T) {
	p := New(nil, nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	p.now = func() time.Time { return fixed }

	data, err := p.Encode("comment_blocked", "admin-1", map[string]any{"comment_id": 7})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventID == "" {
		t.Fatal("expected event id")
	}
	if ev.EventName != "comment_blocked" || ev.ActorID != "admin-1" {
		t.Fatalf("unexpected envelope %+v", ev)
	}
	if !ev.OccurredAt.Equal(fixed) || ev.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", ev.OccurredAt)
	}
}
