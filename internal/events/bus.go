package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Notifier delivers an event to a downstream sink.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// Bus fans events out to the configured notifiers. A nil or empty bus drops
// events silently so emitting stays optional for callers.
type Bus struct {
	Notifiers []Notifier
	Logger    *zerolog.Logger
	Now       func() time.Time
}

func (b *Bus) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Emit encodes the payload and delivers the event to every notifier,
// collecting delivery errors rather than stopping at the first.
func (b *Bus) Emit(ctx context.Context, topic, key string, payload any) error {
	if b == nil || len(b.Notifiers) == 0 {
		return nil
	}
	raw, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	evt := Event{
		ID:         uuid.New(),
		Topic:      topic,
		Key:        key,
		Payload:    raw,
		OccurredAt: b.now().UTC(),
	}

	var errs []error
	for _, n := range b.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
			if b.Logger != nil {
				b.Logger.Error().
					Err(err).
					Str("topic", topic).
					Str("event_id", evt.ID.String()).
					Msg("event_delivery_failed")
			}
		}
	}
	return errors.Join(errs...)
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch v := payload.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(raw), nil
	}
}
