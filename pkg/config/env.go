package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvHoldLeaseDuration      = "HOLD_LEASE_DURATION"
	EnvHoldMaxExtendMinutes   = "HOLD_MAX_EXTEND_MINUTES"
	EnvHoldDefaultDurationMin = "HOLD_DEFAULT_DURATION_MIN"
	EnvHoldMinDurationMin     = "HOLD_MIN_DURATION_MIN"
	EnvHoldMaxDurationMin     = "HOLD_MAX_DURATION_MIN"
	EnvHoldSweepSchedule      = "HOLD_SWEEP_SCHEDULE"
	EnvHoldSweepLockTTL       = "HOLD_SWEEP_LOCK_TTL"
	EnvHoldEventsEnabled      = "HOLD_EVENTS_ENABLED"
	EnvHoldEventsTopic        = "HOLD_EVENTS_TOPIC"
	EnvHoldEventsDLQTopic     = "HOLD_EVENTS_DLQ_TOPIC"
)
