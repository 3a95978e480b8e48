package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported AI providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds runtime configuration values for the assessment service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	AutoMigrate      bool
	RedisURL         string
	NATSURL          string
	EventPrefix      string
	JWTSecret        string
	AIProvider       string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	AIMaxAttempts    int
	AIBackoffStep    time.Duration
	StorageKey       string
	GCSEnabled       bool
	ContentCacheTTL  time.Duration
	RequestBodyLimit int
	RateLimit        int
	RateLimitWindow  time.Duration
}

// ConfigurationError reports a required setting that is missing or invalid.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Edge-function style names are honoured as fallbacks.
	_ = v.BindEnv("gemini.api_key", "GEMA_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("openai_api_key", "GEMA_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("storage.service_key", "GEMA_STORAGE_SERVICE_KEY", "SUPABASE_SERVICE_ROLE_KEY")

	v.SetDefault("app.name", "GEMA Assess API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("events.prefix", "gema")
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.backoff_step", "2s")
	v.SetDefault("content.cache_ttl", "10m")
	v.SetDefault("http.body_limit", 4*1024*1024)
	v.SetDefault("http.rate_limit", 30)
	v.SetDefault("http.rate_limit_window", "1m")

	backoff, err := parseDuration(v.GetString("ai.backoff_step"), 2*time.Second)
	if err != nil {
		return Config{}, &ConfigurationError{Key: "ai.backoff_step", Reason: err.Error()}
	}

	cacheTTL, err := parseDuration(v.GetString("content.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, &ConfigurationError{Key: "content.cache_ttl", Reason: err.Error()}
	}

	rateWindow, err := parseDuration(v.GetString("http.rate_limit_window"), time.Minute)
	if err != nil {
		return Config{}, &ConfigurationError{Key: "http.rate_limit_window", Reason: err.Error()}
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		AutoMigrate:      v.GetBool("database.auto_migrate"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventPrefix:      v.GetString("events.prefix"),
		JWTSecret:        v.GetString("auth.jwt_secret"),
		AIProvider:       strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		GeminiAPIKey:     v.GetString("gemini.api_key"),
		GeminiModel:      v.GetString("gemini.model"),
		GeminiBaseURL:    v.GetString("gemini.base_url"),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		OpenAIModel:      v.GetString("openai.model"),
		AIMaxAttempts:    v.GetInt("ai.max_attempts"),
		AIBackoffStep:    backoff,
		StorageKey:       v.GetString("storage.service_key"),
		GCSEnabled:       v.GetBool("storage.gcs_enabled"),
		ContentCacheTTL:  cacheTTL,
		RequestBodyLimit: v.GetInt("http.body_limit"),
		RateLimit:        v.GetInt("http.rate_limit"),
		RateLimitWindow:  rateWindow,
	}

	if cfg.AIMaxAttempts <= 0 {
		cfg.AIMaxAttempts = 3
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that every setting required to serve requests is present.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return &ConfigurationError{Key: "database.url", Reason: "must be provided"}
	}

	switch c.AIProvider {
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return &ConfigurationError{Key: "gemini.api_key", Reason: "must be provided"}
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return &ConfigurationError{Key: "openai_api_key", Reason: "must be provided"}
		}
	default:
		return &ConfigurationError{Key: "ai.provider", Reason: fmt.Sprintf("unsupported value %q", c.AIProvider)}
	}

	return nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
