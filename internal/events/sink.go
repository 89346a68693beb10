package events

import (
	"context"

	"github.com/example/meeting-coordinator/internal/application"
	"github.com/google/uuid"
)

const source = "meeting-coordinator"

// Sink adapts a Publisher to the application's event boundary, wrapping
// each schedule event in an envelope routed by its kind.
type Sink struct {
	publisher Publisher
}

// NewSink wraps a publisher. A nil publisher falls back to logging.
func NewSink(publisher Publisher) *Sink {
	if publisher == nil {
		publisher = FallbackPublisher{}
	}
	return &Sink{publisher: publisher}
}

// PublishScheduleEvent sends the event with its kind as routing key.
func (s *Sink) PublishScheduleEvent(ctx context.Context, event application.ScheduleEvent) error {
	envelope := Envelope{
		Meta: Meta{
			ID:     uuid.NewString(),
			Type:   event.Kind,
			Source: source,
			Time:   event.OccurredAt,
		},
		Payload: SchedulePayload{
			MeetingID:      event.MeetingID,
			ConversationID: event.ConversationID,
			OwnerIDs:       event.OwnerIDs,
		},
	}
	return s.publisher.Publish(ctx, event.Kind, envelope)
}

// Close releases the underlying publisher.
func (s *Sink) Close() error {
	return s.publisher.Close()
}
