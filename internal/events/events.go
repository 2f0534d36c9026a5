// Package events defines the shipping events the API publishes after a
// successful operation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Type string

const (
	BundleCreated   Type = "bundle.created"
	BundleUnbundled Type = "bundle.unbundled"
	BundleShipped   Type = "bundle.shipped"
	OrderCancelled  Type = "order.cancelled"
	LabelPurchased  Type = "label.purchased"
	LabelUnapplied  Type = "label.unapplied"
)

// Event is the envelope written to the shipping topic. AggregateID is the
// bundle id, or the order id for standalone orders, and is also the message key.
type Event struct {
	ID          string          `json:"id"`
	Type        Type            `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

func New(eventType Type, aggregateID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Data:        raw,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func Decode(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return e, nil
}

// Publisher is implemented by the Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Emit publishes an event and only logs failures: the upstream mutation has
// already happened and must still be reported to the caller.
func Emit(ctx context.Context, pub Publisher, eventType Type, aggregateID string, data any) {
	if pub == nil {
		return
	}
	e, err := New(eventType, aggregateID, data)
	if err == nil {
		err = pub.Publish(context.WithoutCancel(ctx), aggregateID, e)
	}
	if err != nil {
		log.Error().Err(err).
			Str("component", "events").
			Str("event_type", string(eventType)).
			Str("aggregate_id", aggregateID).
			Msg("failed to publish event")
	}
}

// Recorder keeps published events in memory, grouped by aggregate. The API
// uses it when no broker is configured.
type Recorder struct {
	mu     sync.RWMutex
	events map[string][]Event
	all    []Event
}

func NewRecorder() *Recorder {
	return &Recorder{events: make(map[string][]Event)}
}

func (r *Recorder) Publish(_ context.Context, key string, event any) error {
	e, ok := event.(Event)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[key] = append(r.events[key], e)
	r.all = append(r.all, e)
	return nil
}

func (r *Recorder) For(aggregateID string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events[aggregateID]...)
}

func (r *Recorder) All() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.all...)
}

// OfType returns every recorded event of the given type.
func (r *Recorder) OfType(t Type) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.all {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
