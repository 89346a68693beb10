package events

import (
	"context"
	"testing"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
)

type publisherStub struct {
	key       string
	envelope  Envelope
	published int
	err       error
}

func (p *publisherStub) Publish(ctx context.Context, key string, envelope Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.key = key
	p.envelope = envelope
	p.published++
	return nil
}

func (p *publisherStub) Close() error { return nil }

func TestSink_PublishScheduleEvent(t *testing.T) {
	stub := &publisherStub{}
	sink := NewSink(stub)

	occurred := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	err := sink.PublishScheduleEvent(context.Background(), application.ScheduleEvent{
		Kind:           application.EventMeetingCreated,
		MeetingID:      "m-1",
		ConversationID: "conv1",
		OwnerIDs:       []string{"user-a", "user-o"},
		OccurredAt:     occurred,
	})
	if err != nil {
		t.Fatalf("PublishScheduleEvent failed: %v", err)
	}

	if stub.key != application.EventMeetingCreated {
		t.Errorf("expected routing key %s, got %s", application.EventMeetingCreated, stub.key)
	}
	if stub.envelope.Meta.Type != application.EventMeetingCreated {
		t.Errorf("expected envelope type %s, got %s", application.EventMeetingCreated, stub.envelope.Meta.Type)
	}
	if stub.envelope.Meta.ID == "" {
		t.Error("expected a generated envelope id")
	}
	if !stub.envelope.Meta.Time.Equal(occurred) {
		t.Errorf("expected event time %v, got %v", occurred, stub.envelope.Meta.Time)
	}
	payload, ok := stub.envelope.Payload.(SchedulePayload)
	if !ok {
		t.Fatalf("expected SchedulePayload, got %T", stub.envelope.Payload)
	}
	if payload.MeetingID != "m-1" || len(payload.OwnerIDs) != 2 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestSink_NilPublisherFallsBack(t *testing.T) {
	sink := NewSink(nil)

	err := sink.PublishScheduleEvent(context.Background(), application.ScheduleEvent{
		Kind:      application.EventMeetingCancelled,
		MeetingID: "m-1",
	})
	if err != nil {
		t.Fatalf("expected fallback to swallow the event, got %v", err)
	}
}
