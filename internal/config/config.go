package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultAPIBaseURL is used when neither API_BASE_URL nor REACT_APP_API_BASE_URL is set.
const DefaultAPIBaseURL = "https://localhost:7015/api"

type Config struct {
	Server    ServerConfig
	REST      RESTConfig
	Lists     ListsConfig
	Logging   LoggingConfig
	Security  SecurityConfig
	Websocket WebsocketConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
}

type RESTConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

type ListsConfig struct {
	Debounce       time.Duration
	SearchDebounce time.Duration
	PageSize       int
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

type SecurityConfig struct {
	JWTSecret    string
	JWTPublicKey string
}

type WebsocketConfig struct {
	AllowAnonymous bool
	SendBuffer     int
	AllowedActions []string
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	// Topics maps a canonical entity name to the kafka topics carrying its change events.
	Topics map[string][]string
}

type RedisConfig struct {
	Addr     string
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

// env mirrors the process environment; Load reshapes it into Config sections.
type env struct {
	Port string `envconfig:"PORT" default:"8080"`

	APIBaseURL      string        `envconfig:"API_BASE_URL"`
	ReactAPIBaseURL string        `envconfig:"REACT_APP_API_BASE_URL"`
	APITimeout      time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	RetryAttempts   int           `envconfig:"API_RETRY_ATTEMPTS" default:"1"`
	RetryBackoff    time.Duration `envconfig:"API_RETRY_BACKOFF" default:"200ms"`

	ListDebounce   time.Duration `envconfig:"LIST_DEBOUNCE" default:"500ms"`
	SearchDebounce time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"300ms"`
	ListPageSize   int           `envconfig:"LIST_PAGE_SIZE" default:"10"`

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"`
	LogDirectory string `envconfig:"LOG_DIRECTORY" default:"./logs"`

	JWTSecret    string `envconfig:"JWT_SECRET"`
	JWTPublicKey string `envconfig:"JWT_PUBLIC_KEY"`

	WSAllowAnonymous bool     `envconfig:"WS_ALLOW_ANONYMOUS" default:"true"`
	WSSendBuffer     int      `envconfig:"WS_SEND_BUFFER" default:"16"`
	WSAllowedActions []string `envconfig:"WS_ALLOWED_ACTIONS" default:"created,updated,deleted"`

	KafkaBrokers []string          `envconfig:"KAFKA_BROKERS"`
	KafkaBroker  string            `envconfig:"KAFKA_BROKER"`
	KafkaGroupID string            `envconfig:"KAFKA_GROUP_ID" default:"lms-ws"`
	KafkaTopics  map[string]string `envconfig:"KAFKA_TOPICS"`

	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	ListCacheTTL time.Duration `envconfig:"LIST_CACHE_TTL" default:"30s"`

	AuthRateLimit  int           `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	AuthRateWindow time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"1m"`
}

// Load reads the process environment. Callers are expected to have loaded any .env file first.
func Load() (*Config, error) {
	var raw env
	if err := envconfig.Process("", &raw); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if raw.ListPageSize <= 0 {
		return nil, fmt.Errorf("config: LIST_PAGE_SIZE must be positive, got %d", raw.ListPageSize)
	}
	if raw.RetryAttempts <= 0 {
		raw.RetryAttempts = 1
	}

	cfg := &Config{
		Server: ServerConfig{Port: strings.TrimSpace(raw.Port)},
		REST: RESTConfig{
			BaseURL:       resolveBaseURL(raw.APIBaseURL, raw.ReactAPIBaseURL),
			Timeout:       raw.APITimeout,
			RetryAttempts: raw.RetryAttempts,
			RetryBackoff:  raw.RetryBackoff,
		},
		Lists: ListsConfig{
			Debounce:       raw.ListDebounce,
			SearchDebounce: raw.SearchDebounce,
			PageSize:       raw.ListPageSize,
		},
		Logging: LoggingConfig{
			Level:     raw.LogLevel,
			Format:    raw.LogFormat,
			Directory: raw.LogDirectory,
		},
		Security: SecurityConfig{
			JWTSecret:    strings.TrimSpace(raw.JWTSecret),
			JWTPublicKey: strings.TrimSpace(raw.JWTPublicKey),
		},
		Websocket: WebsocketConfig{
			AllowAnonymous: raw.WSAllowAnonymous,
			SendBuffer:     raw.WSSendBuffer,
			AllowedActions: trimAll(raw.WSAllowedActions),
		},
		Kafka: KafkaConfig{
			Brokers: resolveBrokers(raw.KafkaBrokers, raw.KafkaBroker),
			GroupID: strings.TrimSpace(raw.KafkaGroupID),
			Topics:  parseTopics(raw.KafkaTopics),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(raw.RedisAddr),
			CacheTTL: raw.ListCacheTTL,
		},
		RateLimit: RateLimitConfig{
			AuthRequests: raw.AuthRateLimit,
			AuthWindow:   raw.AuthRateWindow,
		},
	}
	if !cfg.Websocket.AllowAnonymous && cfg.Security.JWTSecret == "" && cfg.Security.JWTPublicKey == "" {
		return nil, fmt.Errorf("config: JWT_SECRET or JWT_PUBLIC_KEY is required when anonymous websocket sessions are disabled")
	}
	return cfg, nil
}

func resolveBaseURL(primary, legacy string) string {
	for _, candidate := range []string{primary, legacy} {
		if trimmed := strings.TrimRight(strings.TrimSpace(candidate), "/"); trimmed != "" {
			return trimmed
		}
	}
	return DefaultAPIBaseURL
}

func resolveBrokers(list []string, single string) []string {
	brokers := trimAll(list)
	if len(brokers) == 0 {
		brokers = trimAll(strings.Split(single, ","))
	}
	return brokers
}

// parseTopics turns "courses:lms.course.changed|lms.course.events" entries into entity -> topics.
func parseTopics(raw map[string]string) map[string][]string {
	topics := make(map[string][]string, len(raw))
	for entity, value := range raw {
		key := strings.ToLower(strings.TrimSpace(entity))
		if key == "" {
			continue
		}
		list := trimAll(strings.Split(value, "|"))
		if len(list) == 0 {
			continue
		}
		topics[key] = append(topics[key], list...)
	}
	return topics
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
