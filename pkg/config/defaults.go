package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "slotkeeper"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB = 0

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultHoldLeaseDuration      = 5 * time.Minute
	DefaultHoldMaxExtendMinutes   = 30
	DefaultHoldDefaultDurationMin = 30
	DefaultHoldMinDurationMin     = 5
	DefaultHoldMaxDurationMin     = 480
	DefaultHoldSweepSchedule      = "@every 1m"
	DefaultHoldSweepLockTTL       = 30 * time.Second
	DefaultHoldEventsEnabled      = false
	DefaultHoldEventsTopic        = "slot-holds.events"
)
