package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AgentConfig captures all tunable parameters for the agent process.
// Values are primarily loaded from environment variables with sane
// defaults so the binary can run locally without excessive setup.
type AgentConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	APIBaseURL string
	PushURL    string
	UserID     int64

	SampleInterval time.Duration
	AcquireTimeout time.Duration
	GateMeters     float64
	AnimationSpan  time.Duration
	FlagTTL        time.Duration

	GeoProviderURL string

	OSRMEndpoint  string
	RedisAddr     string
	RedisPassword string
	SnapCacheTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	LogLevel string
}

func defaultAgentConfig() AgentConfig {
	return AgentConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		SampleInterval:  5 * time.Second,
		AcquireTimeout:  5 * time.Second,
		GateMeters:      20,
		AnimationSpan:   time.Second,
		FlagTTL:         2 * time.Second,
		SnapCacheTTL:    time.Hour,
		KafkaTopic:      "agent-locations",
		LogLevel:        "info",
	}
}

func LoadAgentConfig() (AgentConfig, error) {
	cfg := defaultAgentConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setStringFromEnv(&cfg.APIBaseURL, "API_BASE_URL")
	setStringFromEnv(&cfg.PushURL, "PUSH_URL")
	setInt64FromEnv(&cfg.UserID, "AGENT_USER_ID", &errs)

	setDurationFromEnv(&cfg.SampleInterval, "SAMPLE_INTERVAL", &errs)
	setDurationFromEnv(&cfg.AcquireTimeout, "ACQUIRE_TIMEOUT", &errs)
	setFloatFromEnv(&cfg.GateMeters, "DISPLACEMENT_GATE_METERS", &errs)
	setDurationFromEnv(&cfg.AnimationSpan, "ANIMATION_SPAN", &errs)
	setDurationFromEnv(&cfg.FlagTTL, "FLAG_TTL", &errs)

	setStringFromEnv(&cfg.GeoProviderURL, "GEO_PROVIDER_URL")
	setStringFromEnv(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setDurationFromEnv(&cfg.SnapCacheTTL, "SNAP_CACHE_TTL", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be set"))
	}
	if cfg.PushURL == "" {
		errs = append(errs, fmt.Errorf("PUSH_URL must be set"))
	}
	if cfg.UserID == 0 {
		errs = append(errs, fmt.Errorf("AGENT_USER_ID must be set"))
	}
	if cfg.GeoProviderURL == "" {
		errs = append(errs, fmt.Errorf("GEO_PROVIDER_URL must be set"))
	}
	if cfg.GateMeters < 0 {
		errs = append(errs, fmt.Errorf("DISPLACEMENT_GATE_METERS must be >= 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setInt64FromEnv(target *int64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
