// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	StorageMemory    = "memory"
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
	StorageRedis     = "redis"
	StorageNATS      = "nats"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Storage settings
	StorageBackend  string
	StorageFallback bool

	DatabaseURL string

	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirestoreCollection      string

	RedisAddr      string
	RedisUsername  string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string
	NATSKVBucket string

	// LLM settings
	LLMProvider       string
	LLMModel          string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	LLMMaxTokens      int
	LLMTemperature    float64
	GenerationTimeout time.Duration

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSAllowedOrigins []string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables and, when CONFIG_FILE
// is set, a YAML file whose keys are the lowercased variable names.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ServerPort:         v.GetString("port"),
		ServerReadTimeout:  v.GetDuration("server_read_timeout"),
		ServerWriteTimeout: v.GetDuration("server_write_timeout"),

		StorageBackend:  strings.ToLower(v.GetString("storage_backend")),
		StorageFallback: v.GetBool("storage_fallback"),

		DatabaseURL: v.GetString("database_url"),

		FirestoreProjectID:       v.GetString("firestore_project_id"),
		FirestoreCredentialsFile: v.GetString("firestore_credentials_file"),
		FirestoreCollection:      v.GetString("firestore_collection"),

		RedisAddr:      v.GetString("redis_addr"),
		RedisUsername:  v.GetString("redis_username"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		RedisKeyPrefix: v.GetString("redis_key_prefix"),

		NATSURL:      v.GetString("nats_url"),
		NATSCAFile:   v.GetString("nats_ca_file"),
		NATSCertFile: v.GetString("nats_cert_file"),
		NATSKeyFile:  v.GetString("nats_key_file"),
		NATSToken:    v.GetString("nats_token"),
		NATSKVBucket: v.GetString("nats_kv_bucket"),

		LLMProvider:       strings.ToLower(v.GetString("llm_provider")),
		LLMModel:          v.GetString("llm_model"),
		GeminiAPIKey:      v.GetString("gemini_api_key"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		AnthropicAPIKey:   v.GetString("anthropic_api_key"),
		LLMMaxTokens:      v.GetInt("llm_max_tokens"),
		LLMTemperature:    v.GetFloat64("llm_temperature"),
		GenerationTimeout: v.GetDuration("generation_timeout"),

		JWTSecret: v.GetString("jwt_secret"),

		RateLimitRequests: v.GetInt("rate_limit_requests"),
		RateLimitWindow:   v.GetDuration("rate_limit_window"),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),

		LogLevel: v.GetString("log_level"),

		TracingEndpoint: v.GetString("tracing_endpoint"),
		TracingEnabled:  v.GetBool("tracing_enabled"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIKey returns the key of the selected LLM provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("server_read_timeout", 30*time.Second)
	v.SetDefault("server_write_timeout", 120*time.Second)

	v.SetDefault("storage_backend", StorageMemory)
	v.SetDefault("storage_fallback", true)
	v.SetDefault("database_url", "")
	v.SetDefault("firestore_project_id", "")
	v.SetDefault("firestore_credentials_file", "")
	v.SetDefault("firestore_collection", "chatSessions")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_username", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "curator")

	v.SetDefault("nats_url", "nats://localhost:4222")
	v.SetDefault("nats_ca_file", "")
	v.SetDefault("nats_cert_file", "")
	v.SetDefault("nats_key_file", "")
	v.SetDefault("nats_token", "")
	v.SetDefault("nats_kv_bucket", "chat_sessions")

	v.SetDefault("llm_provider", "gemini")
	v.SetDefault("llm_model", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("llm_max_tokens", 1024)
	v.SetDefault("llm_temperature", 0.7)
	v.SetDefault("generation_timeout", 30*time.Second)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("rate_limit_requests", 60)
	v.SetDefault("rate_limit_window", time.Minute)
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("tracing_endpoint", "localhost:4318")
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("config_file", "")
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory, StoragePostgres, StorageFirestore, StorageRedis, StorageNATS:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.LLMProvider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
