package config

import (
	"fmt"
	"os"
	"regexp"
	"slotkeeper/pkg/client"
	"slotkeeper/pkg/logger"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	HoldLeaseDuration      time.Duration
	HoldMaxExtendMinutes   int
	HoldDefaultDurationMin int
	HoldMinDurationMin     int
	HoldMaxDurationMin     int

	SweepSchedule string
	SweepLockTTL  time.Duration

	EventsEnabled  bool
	EventsTopic    string
	EventsDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		HoldLeaseDuration:      getEnvDuration(EnvHoldLeaseDuration, DefaultHoldLeaseDuration),
		HoldMaxExtendMinutes:   getEnvNum(EnvHoldMaxExtendMinutes, DefaultHoldMaxExtendMinutes),
		HoldDefaultDurationMin: getEnvNum(EnvHoldDefaultDurationMin, DefaultHoldDefaultDurationMin),
		HoldMinDurationMin:     getEnvNum(EnvHoldMinDurationMin, DefaultHoldMinDurationMin),
		HoldMaxDurationMin:     getEnvNum(EnvHoldMaxDurationMin, DefaultHoldMaxDurationMin),

		SweepSchedule: getEnvStr(EnvHoldSweepSchedule, DefaultHoldSweepSchedule),
		SweepLockTTL:  getEnvDuration(EnvHoldSweepLockTTL, DefaultHoldSweepLockTTL),

		EventsEnabled:  getEnvBool(EnvHoldEventsEnabled, DefaultHoldEventsEnabled),
		EventsTopic:    getEnvStr(EnvHoldEventsTopic, DefaultHoldEventsTopic),
		EventsDLQTopic: getEnvStr(EnvHoldEventsDLQTopic, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects only when REDIS_ADDR is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis not configured, sweeper runs without leader lease")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.HoldLeaseDuration < time.Minute {
		errors = append(errors, fmt.Sprintf("HoldLeaseDuration must be at least 1m, got: %s", cfg.HoldLeaseDuration))
	}
	if cfg.HoldMaxExtendMinutes < 1 {
		errors = append(errors, fmt.Sprintf("HoldMaxExtendMinutes must be positive, got: %d", cfg.HoldMaxExtendMinutes))
	}
	if cfg.HoldMinDurationMin < 1 {
		errors = append(errors, fmt.Sprintf("HoldMinDurationMin must be positive, got: %d", cfg.HoldMinDurationMin))
	}
	if cfg.HoldMaxDurationMin < cfg.HoldMinDurationMin {
		errors = append(errors, fmt.Sprintf("HoldMaxDurationMin (%d) must be >= HoldMinDurationMin (%d)", cfg.HoldMaxDurationMin, cfg.HoldMinDurationMin))
	}
	if cfg.HoldDefaultDurationMin < cfg.HoldMinDurationMin || cfg.HoldDefaultDurationMin > cfg.HoldMaxDurationMin {
		errors = append(errors, fmt.Sprintf("HoldDefaultDurationMin (%d) must be between HoldMinDurationMin (%d) and HoldMaxDurationMin (%d)", cfg.HoldDefaultDurationMin, cfg.HoldMinDurationMin, cfg.HoldMaxDurationMin))
	}

	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("SweepSchedule must be a valid cron spec, got: %q (%v)", cfg.SweepSchedule, err))
	}
	if cfg.SweepLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SweepLockTTL must be positive, got: %s", cfg.SweepLockTTL))
	}

	if cfg.EventsEnabled && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when events are enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"hold_lease_duration", cfg.HoldLeaseDuration,
		"hold_max_extend_minutes", cfg.HoldMaxExtendMinutes,
		"hold_default_duration_min", cfg.HoldDefaultDurationMin,
		"hold_min_duration_min", cfg.HoldMinDurationMin,
		"hold_max_duration_min", cfg.HoldMaxDurationMin,
		"sweep_schedule", cfg.SweepSchedule,
		"sweep_lock_ttl", cfg.SweepLockTTL,
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
