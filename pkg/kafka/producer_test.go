package kafka

import (
	"context"
	"io"
	"testing"

	kafka_config "slotkeeper/pkg/kafka/config"
	"slotkeeper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProducer(t *testing.T) *Producer {
	t.Helper()
	cfg := &kafka_config.Config{
		Brokers:              []string{"localhost:9092"},
		ProducerMaxAttempts:  1,
		ProducerBatchTimeout: kafka_config.DefaultProducerBatchTimeout,
		ProducerWriteTimeout: kafka_config.DefaultProducerWriteTimeout,
		ProducerRequireAcks:  -1,
		ProducerCompression:  "none",
	}
	producer, err := NewProducer(cfg, "slot-holds.events", "", logger.New(logger.Config{Level: "error", Output: io.Discard}))
	require.NoError(t, err)
	return producer
}

func TestNewProducer_Validation(t *testing.T) {
	log := logger.New(logger.Config{Output: io.Discard})

	_, err := NewProducer(nil, "topic", "", log)
	assert.Error(t, err)

	_, err = NewProducer(&kafka_config.Config{}, "topic", "", log)
	assert.Error(t, err)

	_, err = NewProducer(&kafka_config.Config{Brokers: []string{"localhost:9092"}}, "", "", log)
	assert.Error(t, err)
}

func TestPublish_RejectsInvalidMessages(t *testing.T) {
	producer := newTestProducer(t)
	defer producer.Close()

	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{"empty key", NewMessage().WithValue(map[string]string{"a": "b"}).Build(), ErrEmptyKey},
		{"empty value", NewMessage().WithKey("d1|2025-06-01").Build(), ErrEmptyValue},
		{"unencodable value", NewMessage().WithKey("k").WithValue(make(chan int)).Build(), ErrEncodeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, producer.Publish(context.Background(), tt.msg), tt.want)
		})
	}
}

func TestPublish_MiddlewareOrder(t *testing.T) {
	producer := newTestProducer(t)
	defer producer.Close()

	var order []string
	record := func(name string) ProducerMiddleware {
		return func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			assert.Equal(t, "slot-holds.events", msg.Topic)
			return ErrProducerClosed
		}
	}
	producer.Use(record("first"))
	producer.Use(record("second"))

	msg := NewMessage().WithKey("k").WithValue("v").Build()
	assert.ErrorIs(t, producer.Publish(context.Background(), msg), ErrProducerClosed)
	assert.Equal(t, []string{"first"}, order, "a middleware that does not call next short-circuits the chain")
}

func TestPublish_AfterClose(t *testing.T) {
	producer := newTestProducer(t)
	require.NoError(t, producer.Close())
	require.NoError(t, producer.Close())

	msg := NewMessage().WithKey("k").WithValue("v").Build()
	assert.ErrorIs(t, producer.Publish(context.Background(), msg), ErrProducerClosed)
}

func TestMessageBuilder(t *testing.T) {
	msg := NewMessage().
		WithKey("d1|2025-06-01").
		WithValue(map[string]string{"hold_id": "h1"}).
		WithEventType("hold.reserved").
		WithCorrelationID("").
		WithSchemaVersion("1").
		Build()

	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "hold.reserved", msg.GetEventType())
	assert.Empty(t, msg.GetCorrelationID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])

	var decoded map[string]string
	require.NoError(t, msg.DecodeValue(&decoded))
	assert.Equal(t, "h1", decoded["hold_id"])
}
