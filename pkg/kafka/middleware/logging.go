package kafka_middleware

import (
	"context"
	"time"

	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/logger"
)

// Logging records every publish attempt at debug level and failures at error level.
func Logging(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Kafka publish failed", append(attrs, "error", err)...)
			return err
		}

		log.Debug("Kafka message published", attrs...)
		return nil
	}
}
