package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	vstrings "verigate/pkg/platform/strings"
)

// Reference budgets. The scorer timeout must stay below the request budget so
// persistence still fits after a slow scorer.
const (
	DefaultScorerTimeout  = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultSinkTimeout    = 5 * time.Second
	DefaultHandshakeTTL   = 15 * time.Minute
	DefaultHandshakeCap   = 10_000
	DefaultSessionTTL     = 24 * time.Hour
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	Environment     string
	PublicWebOrigin string
	PublicAPIOrigin string

	Verifier  VerifierConfig
	Scorer    ScorerConfig
	Sink      SinkConfig
	Handshake HandshakeConfig
	Session   SessionConfig
	RateLimit RateLimitConfig

	// AdminAPIKeys holds plaintext keys or bcrypt hashes ("$2a$..." etc).
	AdminAPIKeys []string

	RequestTimeout time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// VerifierConfig selects and parameterises the verification provider.
type VerifierConfig struct {
	Provider    string // "mock" or "persona"
	ClientID    string
	RedirectURI string
	Environment string
}

// ScorerConfig points at the external analysis service.
type ScorerConfig struct {
	BaseURL string
	Timeout time.Duration
	TopK    int
}

// SinkConfig holds the per-outcome metrics sink routes.
type SinkConfig struct {
	VerifiedURL    string
	NonVerifiedURL string
	Timeout        time.Duration
}

// HandshakeConfig bounds the in-memory token registry.
type HandshakeConfig struct {
	TTL      time.Duration
	Capacity int
}

// SessionConfig signs the proof token handed out after a verified callback.
type SessionConfig struct {
	SigningKey string
	TTL        time.Duration
}

// RateLimitConfig applies to /portal/submit.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// DatabaseConfig is optional; an empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty URL selects the in-memory token registry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is optional; empty brokers disable the ledger stream.
type KafkaConfig struct {
	Brokers     string
	LedgerTopic string
	Acks        string
	Retries     int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:            envOr("VERIGATE_ADDR", ":8080"),
		Environment:     envOr("ENVIRONMENT", "development"),
		PublicWebOrigin: strings.TrimRight(envOr("PUBLIC_WEB_ORIGIN", "http://localhost:3000"), "/"),
		PublicAPIOrigin: strings.TrimRight(envOr("PUBLIC_API_ORIGIN", "http://localhost:8080"), "/"),
		Verifier: VerifierConfig{
			Provider:    strings.ToLower(envOr("VERIFY_PROVIDER", "mock")),
			ClientID:    os.Getenv("PERSONA_CLIENT_ID"),
			RedirectURI: os.Getenv("PERSONA_REDIRECT_URI"),
			Environment: envOr("PERSONA_ENV", "sandbox"),
		},
		Scorer: ScorerConfig{
			BaseURL: strings.TrimRight(envOr("AI_RAG_URL", "http://localhost:8001"), "/"),
			TopK:    5,
		},
		Sink: SinkConfig{
			VerifiedURL:    strings.TrimRight(envOr("ETL_V_URL", "http://localhost:8002"), "/"),
			NonVerifiedURL: strings.TrimRight(envOr("ETL_NV_URL", "http://localhost:8003"), "/"),
		},
		Session: SessionConfig{
			SigningKey: os.Getenv("JWT_SIGNING_KEY"),
		},
		AdminAPIKeys: vstrings.SplitList(os.Getenv("ADMIN_API_KEYS")),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     os.Getenv("KAFKA_BROKERS"),
			LedgerTopic: envOr("LEDGER_TOPIC", "verigate.audit-ledger"),
			Acks:        envOr("KAFKA_ACKS", "all"),
			Retries:     3,
		},
	}

	var err error
	if cfg.Scorer.Timeout, err = envDuration("SCORER_TIMEOUT", DefaultScorerTimeout); err != nil {
		return Server{}, err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", DefaultRequestTimeout); err != nil {
		return Server{}, err
	}
	if cfg.Sink.Timeout, err = envDuration("SINK_TIMEOUT", DefaultSinkTimeout); err != nil {
		return Server{}, err
	}
	if cfg.Handshake.TTL, err = envDuration("HANDSHAKE_TTL", DefaultHandshakeTTL); err != nil {
		return Server{}, err
	}
	if cfg.Session.TTL, err = envDuration("SESSION_TOKEN_TTL", DefaultSessionTTL); err != nil {
		return Server{}, err
	}
	if cfg.Handshake.Capacity, err = envInt("HANDSHAKE_CAPACITY", DefaultHandshakeCap); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Burst, err = envInt("SUBMIT_RATE_BURST", 10); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.PerSecond, err = envFloat("SUBMIT_RATE_PER_SEC", 2); err != nil {
		return Server{}, err
	}

	if cfg.Session.SigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		// Development default; production refuses to start without a real key.
		cfg.Session.SigningKey = "dev-secret-key-change-in-production"
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Server) Validate() error {
	switch c.Verifier.Provider {
	case "mock", "persona":
	default:
		return fmt.Errorf("VERIFY_PROVIDER must be mock or persona, got %q", c.Verifier.Provider)
	}
	if c.Scorer.Timeout >= c.RequestTimeout {
		return fmt.Errorf("SCORER_TIMEOUT (%s) must be shorter than REQUEST_TIMEOUT (%s)", c.Scorer.Timeout, c.RequestTimeout)
	}
	if c.Handshake.Capacity <= 0 {
		return fmt.Errorf("HANDSHAKE_CAPACITY must be positive")
	}
	return nil
}

// IsProduction reports whether the process runs with production defaults disabled.
func (c Server) IsProduction() bool {
	return c.Environment == "production"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}
