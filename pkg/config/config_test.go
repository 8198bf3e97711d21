package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:               DefaultMongoURI,
		MongoDatabaseName:      DefaultMongoDatabaseName,
		MongoConnTimeout:       DefaultMongoConnTimeout,
		Port:                   DefaultPort,
		RateLimitRequests:      DefaultRateLimitRequests,
		RateLimitWindow:        DefaultRateLimitWindow,
		RequestTimeout:         DefaultRequestTimeout,
		IdempotencyTTL:         DefaultIdempotencyTTL,
		MaxRequestSize:         DefaultMaxRequestSize,
		ReadTimeout:            DefaultReadTimeout,
		WriteTimeout:           DefaultWriteTimeout,
		IdleTimeout:            DefaultIdleTimeout,
		ShutdownTimeout:        DefaultShutdownTimeout,
		HoldLeaseDuration:      DefaultHoldLeaseDuration,
		HoldMaxExtendMinutes:   DefaultHoldMaxExtendMinutes,
		HoldDefaultDurationMin: DefaultHoldDefaultDurationMin,
		HoldMinDurationMin:     DefaultHoldMinDurationMin,
		HoldMaxDurationMin:     DefaultHoldMaxDurationMin,
		SweepSchedule:          DefaultHoldSweepSchedule,
		SweepLockTTL:           DefaultHoldSweepLockTTL,
		EventsTopic:            DefaultHoldEventsTopic,
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate, got: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Port = "0" }, "Port must be between"},
		{"bad mongo uri", func(c *Config) { c.MongoURI = "postgres://x" }, "MongoURI must start"},
		{"short lease", func(c *Config) { c.HoldLeaseDuration = 10 * time.Second }, "HoldLeaseDuration"},
		{"default duration out of range", func(c *Config) { c.HoldDefaultDurationMin = 600 }, "HoldDefaultDurationMin"},
		{"bad cron spec", func(c *Config) { c.SweepSchedule = "every minute" }, "SweepSchedule"},
		{"events without topic", func(c *Config) { c.EventsEnabled = true; c.EventsTopic = "" }, "EventsTopic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error to mention %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.MongoDatabaseName = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "1. ") || !strings.Contains(err.Error(), "2. ") {
		t.Errorf("expected numbered list of problems, got: %v", err)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:s3cret@db:27017/?replicaSet=rs0")
	if strings.Contains(got, "s3cret") {
		t.Errorf("password leaked: %s", got)
	}
	if !strings.HasPrefix(got, "mongodb://***:***@") {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv(EnvHoldLeaseDuration, "7m")
	t.Setenv(EnvHoldMaxExtendMinutes, "not-a-number")
	t.Setenv(EnvHoldEventsEnabled, "true")

	if got := getEnvDuration(EnvHoldLeaseDuration, DefaultHoldLeaseDuration); got != 7*time.Minute {
		t.Errorf("expected 7m, got %s", got)
	}
	if got := getEnvNum(EnvHoldMaxExtendMinutes, 30); got != 30 {
		t.Errorf("expected fallback 30, got %d", got)
	}
	if !getEnvBool(EnvHoldEventsEnabled, false) {
		t.Error("expected events enabled")
	}
}
