package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REACT_APP_API_BASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_BROKER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.REST.BaseURL != DefaultAPIBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.REST.BaseURL)
	}
	if cfg.REST.Timeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.REST.Timeout)
	}
	if cfg.Lists.Debounce != 500*time.Millisecond {
		t.Fatalf("expected 500ms debounce, got %s", cfg.Lists.Debounce)
	}
	if cfg.REST.RetryAttempts != 1 {
		t.Fatalf("expected a single attempt by default, got %d", cfg.REST.RetryAttempts)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadLegacyBaseURLFallback(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REACT_APP_API_BASE_URL", "https://lms.example.com/api/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.REST.BaseURL != "https://lms.example.com/api" {
		t.Fatalf("expected legacy base url, got %s", cfg.REST.BaseURL)
	}

	t.Setenv("API_BASE_URL", "http://api.internal")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.REST.BaseURL != "http://api.internal" {
		t.Fatalf("expected API_BASE_URL to win, got %s", cfg.REST.BaseURL)
	}
}

func TestLoadKafkaTopicsAndBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_BROKER", " kafka-1:9092 , kafka-2:9092 ")
	t.Setenv("KAFKA_TOPICS", "Courses:lms.course.changed|lms.course.events,problems:lms.problem.changed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if got := cfg.Kafka.Topics["courses"]; len(got) != 2 || got[1] != "lms.course.events" {
		t.Fatalf("unexpected course topics: %v", got)
	}
	if got := cfg.Kafka.Topics["problems"]; len(got) != 1 {
		t.Fatalf("unexpected problem topics: %v", got)
	}
}

func TestLoadRequiresKeyWhenAnonymousDisabled(t *testing.T) {
	t.Setenv("WS_ALLOW_ANONYMOUS", "false")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_PUBLIC_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no jwt key is configured")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsInvalidPageSize(t *testing.T) {
	t.Setenv("LIST_PAGE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero page size")
	}
}
