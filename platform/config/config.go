// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides Redis and asynq worker settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetAsynqMaxRetry() int
	GetAsynqTaskTimeout() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketCallArtifacts() string
	IsMinIOEnabled() bool
}

// WebhookConfig provides settings for inbound voice platform webhooks.
type WebhookConfig interface {
	GetVoiceWebhookSecret() string
	GetWebhookMaxBodyBytes() int64
	GetWebhookEnqueueTimeout() time.Duration
	GetWebhookRatePerMinute() int
}

// VoiceConfig provides settings for the outbound voice platform API.
type VoiceConfig interface {
	GetVoiceAPIBaseURL() string
	GetVoiceAPIKey() string
	GetVoiceAgentID() string
	GetVoiceAgentPhoneNumberID() string
	GetDefaultPhoneRegion() string
	IsVoiceEnabled() bool
}

// ClassifierConfig provides settings for the interest classification model.
type ClassifierConfig interface {
	GetClassifierProvider() string
	GetClassifierModel() string
	GetMoonshotAPIKey() string
	GetGeminiAPIKey() string
}

// VariablesConfig provides settings for the dynamic variable cache.
type VariablesConfig interface {
	GetVariableCacheTTL() time.Duration
	GetVariableCacheBackend() string
}

// PipelineConfig provides settings for the call event processor.
type PipelineConfig interface {
	GetRecordingFetchTimeout() time.Duration
	GetRecordingMaxBytes() int64
	GetRecordingAllowedHosts() []string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	AsynqMaxRetry    int
	AsynqTaskTimeout time.Duration

	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOMaxFileSize         int64
	MinioBucketCallArtifacts string

	VoiceWebhookSecret    string
	WebhookMaxBodyBytes   int64
	WebhookEnqueueTimeout time.Duration
	WebhookRatePerMinute  int

	VoiceAPIBaseURL         string
	VoiceAPIKey             string
	VoiceAgentID            string
	VoiceAgentPhoneNumberID string
	DefaultPhoneRegion      string

	ClassifierProvider string
	ClassifierModel    string
	MoonshotAPIKey     string
	GeminiAPIKey       string

	VariableCacheTTL     time.Duration
	VariableCacheBackend string

	RecordingFetchTimeout time.Duration
	RecordingMaxBytes     int64
	RecordingAllowedHosts []string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetAsynqMaxRetry() int              { return c.AsynqMaxRetry }
func (c *Config) GetAsynqTaskTimeout() time.Duration { return c.AsynqTaskTimeout }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketCallArtifacts() string {
	return c.MinioBucketCallArtifacts
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// WebhookConfig implementation
func (c *Config) GetVoiceWebhookSecret() string           { return c.VoiceWebhookSecret }
func (c *Config) GetWebhookMaxBodyBytes() int64           { return c.WebhookMaxBodyBytes }
func (c *Config) GetWebhookEnqueueTimeout() time.Duration { return c.WebhookEnqueueTimeout }
func (c *Config) GetWebhookRatePerMinute() int            { return c.WebhookRatePerMinute }

// VoiceConfig implementation
func (c *Config) GetVoiceAPIBaseURL() string         { return c.VoiceAPIBaseURL }
func (c *Config) GetVoiceAPIKey() string             { return c.VoiceAPIKey }
func (c *Config) GetVoiceAgentID() string            { return c.VoiceAgentID }
func (c *Config) GetVoiceAgentPhoneNumberID() string { return c.VoiceAgentPhoneNumberID }
func (c *Config) GetDefaultPhoneRegion() string      { return c.DefaultPhoneRegion }
func (c *Config) IsVoiceEnabled() bool {
	return c.VoiceAPIKey != "" && c.VoiceAgentID != ""
}

// ClassifierConfig implementation
func (c *Config) GetClassifierProvider() string { return c.ClassifierProvider }
func (c *Config) GetClassifierModel() string    { return c.ClassifierModel }
func (c *Config) GetMoonshotAPIKey() string     { return c.MoonshotAPIKey }
func (c *Config) GetGeminiAPIKey() string       { return c.GeminiAPIKey }

// VariablesConfig implementation
func (c *Config) GetVariableCacheTTL() time.Duration { return c.VariableCacheTTL }
func (c *Config) GetVariableCacheBackend() string    { return c.VariableCacheBackend }

// PipelineConfig implementation
func (c *Config) GetRecordingFetchTimeout() time.Duration { return c.RecordingFetchTimeout }
func (c *Config) GetRecordingMaxBytes() int64             { return c.RecordingMaxBytes }
func (c *Config) GetRecordingAllowedHosts() []string      { return c.RecordingAllowedHosts }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "calls"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		AsynqMaxRetry:    mustInt(getEnv("ASYNQ_MAX_RETRY", "10")),
		AsynqTaskTimeout: mustDuration(getEnv("ASYNQ_TASK_TIMEOUT", "5m")),

		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:         mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "104857600")),
		MinioBucketCallArtifacts: getEnv("MINIO_BUCKET_CALL_ARTIFACTS", "call-artifacts"),

		VoiceWebhookSecret:    getEnv("VOICE_WEBHOOK_SECRET", ""),
		WebhookMaxBodyBytes:   mustInt64(getEnv("WEBHOOK_MAX_BODY_BYTES", "1048576")),
		WebhookEnqueueTimeout: mustDuration(getEnv("WEBHOOK_ENQUEUE_TIMEOUT", "2s")),
		WebhookRatePerMinute:  mustInt(getEnv("WEBHOOK_RATE_PER_MINUTE", "600")),

		VoiceAPIBaseURL:         getEnv("VOICE_API_BASE_URL", "https://api.elevenlabs.io"),
		VoiceAPIKey:             getEnv("VOICE_API_KEY", ""),
		VoiceAgentID:            getEnv("VOICE_AGENT_ID", ""),
		VoiceAgentPhoneNumberID: getEnv("VOICE_AGENT_PHONE_NUMBER_ID", ""),
		DefaultPhoneRegion:      strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "AU")),

		ClassifierProvider: strings.ToLower(getEnv("CLASSIFIER_PROVIDER", "moonshot")),
		ClassifierModel:    getEnv("CLASSIFIER_MODEL", ""),
		MoonshotAPIKey:     getEnv("MOONSHOT_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),

		VariableCacheTTL:     mustDuration(getEnv("VARIABLE_CACHE_TTL", "15m")),
		VariableCacheBackend: strings.ToLower(getEnv("VARIABLE_CACHE_BACKEND", "redis")),

		RecordingFetchTimeout: mustDuration(getEnv("RECORDING_FETCH_TIMEOUT", "30s")),
		RecordingMaxBytes:     mustInt64(getEnv("RECORDING_MAX_BYTES", "52428800")),
		RecordingAllowedHosts: splitCSV(strings.ToLower(getEnv("RECORDING_ALLOWED_HOSTS", ""))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.VoiceWebhookSecret == "" {
		return nil, fmt.Errorf("VOICE_WEBHOOK_SECRET is required")
	}
	if cfg.VariableCacheTTL <= 0 {
		cfg.VariableCacheTTL = 15 * time.Minute
	}
	if cfg.WebhookEnqueueTimeout <= 0 {
		cfg.WebhookEnqueueTimeout = 2 * time.Second
	}
	switch cfg.ClassifierProvider {
	case "moonshot", "gemini":
	default:
		return nil, fmt.Errorf("CLASSIFIER_PROVIDER must be moonshot or gemini, got %q", cfg.ClassifierProvider)
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
