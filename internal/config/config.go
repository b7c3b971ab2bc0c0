// Package config provides environment configuration for the assistant.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `mapstructure:"port"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`

	// NATS settings
	NATSURL      string `mapstructure:"nats_url"`
	NATSCAFile   string `mapstructure:"nats_ca_file"`
	NATSCertFile string `mapstructure:"nats_cert_file"`
	NATSKeyFile  string `mapstructure:"nats_key_file"`
	NATSToken    string `mapstructure:"nats_token"`

	// JWT settings
	JWTSecret string `mapstructure:"jwt_secret"`

	// CORS
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	// LLM settings
	LLMProvider     string `mapstructure:"llm_provider"`
	LLMModel        string `mapstructure:"llm_model"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string `mapstructure:"openai_base_url"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	// Graph database
	Neo4jURI      string `mapstructure:"neo4j_uri"`
	Neo4jUsername string `mapstructure:"neo4j_username"`
	Neo4jPassword string `mapstructure:"neo4j_password"`
	Neo4jDatabase string `mapstructure:"neo4j_database"`
	SchemaFile    string `mapstructure:"schema_file"`

	// Assistant behaviour
	HistorySize             int           `mapstructure:"history_size"`
	ConversationIdleTimeout time.Duration `mapstructure:"conversation_idle_timeout"`
	ResponseTemperature     float64       `mapstructure:"response_temperature"`
	ResponseMaxTokens       int           `mapstructure:"response_max_tokens"`
	ValidationAttempts      int           `mapstructure:"validation_attempts"`
	UnsafeTemplateQueries   bool          `mapstructure:"unsafe_template_queries"`

	// Rate limiting
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	MessageRateLimit  int           `mapstructure:"message_rate_limit"`

	// Logging
	LogLevel string `mapstructure:"log_level"`

	// Tracing
	TracingEndpoint string `mapstructure:"tracing_endpoint"`
	TracingEnabled  bool   `mapstructure:"tracing_enabled"`
}

var defaults = map[string]any{
	"port":                 "8080",
	"server_read_timeout":  30 * time.Second,
	"server_write_timeout": 120 * time.Second,

	"nats_url":       "nats://localhost:4222",
	"nats_ca_file":   "",
	"nats_cert_file": "",
	"nats_key_file":  "",
	"nats_token":     "",

	"jwt_secret": "development-secret-change-in-production",

	"cors_allowed_origins": []string{},

	"llm_provider":      "openai",
	"llm_model":         "",
	"openai_api_key":    "",
	"openai_base_url":   "",
	"anthropic_api_key": "",

	"neo4j_uri":      "neo4j://localhost:7687",
	"neo4j_username": "neo4j",
	"neo4j_password": "",
	"neo4j_database": "",
	"schema_file":    "",

	"history_size":              5,
	"conversation_idle_timeout": 30 * time.Minute,
	"response_temperature":      0.7,
	"response_max_tokens":       300,
	"validation_attempts":       1,
	"unsafe_template_queries":   false,

	"rate_limit_requests": 60,
	"rate_limit_window":   time.Minute,
	"message_rate_limit":  20,

	"log_level": "info",

	"tracing_endpoint": "localhost:4318",
	"tracing_enabled":  false,
}

// Load reads configuration from defaults, an optional finwise.yaml in the
// working directory or /etc/finwise, and environment variables (highest precedence).
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("finwise")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/finwise")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the assistant cannot run with.
func (c *Config) Validate() error {
	if c.HistorySize < 1 {
		return &Error{Field: "history_size", Message: "must be at least 1"}
	}
	if c.ConversationIdleTimeout <= 0 {
		return &Error{Field: "conversation_idle_timeout", Message: "must be positive"}
	}
	if c.ValidationAttempts < 1 {
		return &Error{Field: "validation_attempts", Message: "must be at least 1"}
	}
	if c.RateLimitRequests < 1 || c.MessageRateLimit < 1 {
		return &Error{Field: "rate_limit_requests", Message: "rate limits must be at least 1"}
	}
	if c.ResponseMaxTokens < 1 {
		return &Error{Field: "response_max_tokens", Message: "must be at least 1"}
	}
	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		return &Error{Field: "llm_provider", Message: fmt.Sprintf("unknown provider %q", c.LLMProvider)}
	}
	return nil
}

// Error represents a configuration error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
