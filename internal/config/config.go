package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service settings read from the environment.
type Config struct {
	Port              string
	Environment       string
	HistoryBackend    string
	HistoryDir        string
	DatabaseURL       string
	ProfilePath       string
	AMQPURL           string
	AMQPQueue         string
	InboxDir          string
	TranscribeURL     string
	MockTranscribe    bool
	MetricsNamespace  string
	PersistMaxElapsed time.Duration
	BatchConcurrency  int

	Profile Profile
}

// Load reads the environment (callers load .env first) and the scoring profile.
func Load() (Config, error) {
	cfg := Config{
		Port:             envOr("PORT", "8080"),
		Environment:      envOr("ENVIRONMENT", "local"),
		HistoryBackend:   strings.ToLower(envOr("HISTORY_BACKEND", "sqlite")),
		HistoryDir:       envOr("HISTORY_DIR", "data"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ProfilePath:      strings.TrimSpace(os.Getenv("SCORING_PROFILE")),
		AMQPURL:          strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPQueue:        envOr("AMQP_QUEUE_NAME", "call-quality.outreach"),
		InboxDir:         strings.TrimSpace(os.Getenv("INBOX_DIR")),
		TranscribeURL:    strings.TrimSpace(os.Getenv("TRANSCRIBE_URL")),
		MockTranscribe:   os.Getenv("USE_MOCK_TRANSCRIBE") == "true",
		MetricsNamespace: envOr("METRICS_NAMESPACE", "call_quality"),
	}

	var err error
	if cfg.PersistMaxElapsed, err = envDuration("PERSIST_MAX_ELAPSED", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BatchConcurrency, err = envInt("BATCH_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}

	switch cfg.HistoryBackend {
	case "memory", "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown HISTORY_BACKEND %q", cfg.HistoryBackend)
	}
	if cfg.HistoryBackend == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("HISTORY_BACKEND=postgres requires DATABASE_URL")
	}

	if cfg.Profile, err = LoadProfile(cfg.ProfilePath); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(os.Getenv("REVIEW_THRESHOLD")); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_THRESHOLD: %w", err)
		}
		if err := ValidateThreshold(t); err != nil {
			return Config{}, err
		}
		cfg.Profile.ReviewThreshold = t
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", k, v)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", k, err)
	}
	return d, nil
}
