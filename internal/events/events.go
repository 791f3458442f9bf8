package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AppointmentCreated   = "appointment.created"
	AppointmentCompleted = "appointment.completed"
	AppointmentCancelled = "appointment.cancelled"
	SlotCreated          = "slot.created"
	SlotUpdated          = "slot.updated"
	SlotDeleted          = "slot.deleted"
)

type Event struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	AggregateID uuid.UUID      `json:"aggregate_id"`
	Payload     map[string]any `json:"payload,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func New(eventType string, aggregateID uuid.UUID, payload map[string]any) Event {
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers committed domain events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes every event at debug level.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Publish(_ context.Context, ev Event) error {
	l.log.Debug("domain event",
		zap.String("event_type", ev.Type),
		zap.Stringer("aggregate_id", ev.AggregateID),
		zap.Any("payload", ev.Payload),
	)
	return nil
}

// Inserter persists events, usually into the event_logs table.
type Inserter interface {
	InsertEvent(ctx context.Context, ev Event) error
}

type Recorder struct {
	store Inserter
}

func NewRecorder(store Inserter) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Publish(ctx context.Context, ev Event) error {
	return r.store.InsertEvent(ctx, ev)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
