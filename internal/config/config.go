// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"120s"`
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS" envDefault:"https://*,http://*" envSeparator:","`

	// NATS settings. An empty URL disables event publishing.
	NATSURL      string `env:"NATS_URL"`
	NATSCAFile   string `env:"NATS_CA_FILE"`
	NATSCertFile string `env:"NATS_CERT_FILE"`
	NATSKeyFile  string `env:"NATS_KEY_FILE"`
	NATSToken    string `env:"NATS_TOKEN"`

	// JWT settings
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"development-secret-change-in-production"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"12h"`

	// Mock backend latencies
	LoginDelay       time.Duration `env:"MOCK_LOGIN_DELAY" envDefault:"1s"`
	AssistantDelays  bool          `env:"MOCK_ASSISTANT_DELAYS" envDefault:"true"`
	FailureRate      float64       `env:"MOCK_FAILURE_RATE" envDefault:"0"`
	UploadStep       time.Duration `env:"MOCK_UPLOAD_STEP" envDefault:"100ms"`
	AssistantTimeout time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"30s"`

	// Chat settings
	TitleLimit int `env:"CHAT_TITLE_LIMIT" envDefault:"50"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Uploads
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Tracing
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return nil, fmt.Errorf("MOCK_FAILURE_RATE must be within [0, 1], got %v", cfg.FailureRate)
	}
	return cfg, nil
}
