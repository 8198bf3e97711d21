// Package events publishes hold lifecycle notifications after the
// corresponding transaction has committed.
package events

import (
	"context"
	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/middleware"
	"sync"
	"time"
)

const (
	TypeHoldReserved  = "hold.reserved"
	TypeHoldConfirmed = "hold.confirmed"
	TypeHoldReleased  = "hold.released"
	TypeHoldExtended  = "hold.extended"
	TypeHoldsSwept    = "holds.swept"

	SchemaVersion = "1"

	defaultPublishTimeout = 5 * time.Second
	defaultQueueSize      = 256
)

type Event struct {
	Type          string     `json:"type"`
	HoldID        string     `json:"hold_id,omitempty"`
	DoctorID      string     `json:"doctor_id,omitempty"`
	Date          string     `json:"date,omitempty"`
	StartTime     string     `json:"start_time,omitempty"`
	EndTime       string     `json:"end_time,omitempty"`
	AppointmentID string     `json:"appointment_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Count         int64      `json:"count,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Key partitions events per doctor and day so consumers see one schedule in order.
func (e Event) Key() string {
	if e.DoctorID == "" {
		return e.Type
	}
	return e.DoctorID + "|" + e.Date
}

// Publisher never fails the caller. Delivery problems are logged.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// MessageProducer is satisfied by *kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type outgoing struct {
	msg   kafka.Message
	event Event
}

// KafkaPublisher hands events to a single background sender through a
// bounded queue, so a slow or unreachable broker never delays the request
// that produced the event. When the queue is full the event is dropped and logged.
type KafkaPublisher struct {
	producer MessageProducer
	source   string
	timeout  time.Duration
	log      *logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan outgoing
	done   chan struct{}
}

func NewKafkaPublisher(producer MessageProducer, source string, log *logger.Logger) *KafkaPublisher {
	return newKafkaPublisher(producer, source, log, defaultQueueSize)
}

func newKafkaPublisher(producer MessageProducer, source string, log *logger.Logger, queueSize int) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		source:   source,
		timeout:  defaultPublishTimeout,
		log:      log.Component("events"),
		queue:    make(chan outgoing, queueSize),
		done:     make(chan struct{}),
	}

	go p.run()

	return p
}

// Publish builds the message from the caller's context, so the request id
// travels as the correlation id, and queues it without blocking.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	msg := kafka.NewMessage().
		WithKey(event.Key()).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSource(p.source).
		WithSchemaVersion(SchemaVersion).
		Build()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.log.Warn("Hold event dropped after shutdown", "event_type", event.Type, "hold_id", event.HoldID)
		return
	}

	select {
	case p.queue <- outgoing{msg: msg, event: event}:
	default:
		p.log.Warn("Hold event queue full, dropping event",
			"event_type", event.Type,
			"hold_id", event.HoldID,
			"queue_size", cap(p.queue),
		)
	}
}

// Close stops accepting events and waits until the queued ones are sent.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for out := range p.queue {
		p.send(out)
	}
}

// send is detached from any request: the state change it reports is already committed.
func (p *KafkaPublisher) send(out outgoing) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.producer.Publish(ctx, out.msg); err != nil {
		p.log.Warn("Failed to publish hold event",
			"event_type", out.event.Type,
			"hold_id", out.event.HoldID,
			"correlation_id", out.msg.GetCorrelationID(),
			"error", err,
		)
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
