package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"uniscan/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig  `validate:"required"`
	AI        AIConfig        `validate:"required"`
	Server    ServerConfig    `validate:"required"`
	Cache     CacheConfig
	Workflow  WorkflowConfig  `validate:"required"`
	Publisher PublisherConfig `validate:"required"`
	Log       LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string `validate:"required"`
	MaxOpenConns    int    `validate:"gte=1"`
	ConnMaxLifetime time.Duration
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	OpenAIKey   string `validate:"required"`
	BaseURL     string `validate:"required,url"`
	Model       string `validate:"required"`
	MaxTokens   int    `validate:"gte=256"`
	Temperature float64
	Timeout     time.Duration `validate:"gt=0"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port       string `validate:"required"`
	ViewerPort string `validate:"required"`
	GinMode    string `validate:"oneof=debug release test"`
}

// CacheConfig configures the history list cache. An empty RedisURL keeps
// the cache in process.
type CacheConfig struct {
	RedisURL   string
	HistoryTTL time.Duration
}

// WorkflowConfig holds submission workflow settings
type WorkflowConfig struct {
	PipelineTimeout          time.Duration `validate:"gt=0"`
	MaxAlternativeReferences int           `validate:"gte=0"`
	SessionIdleTimeout       time.Duration
}

// PublisherConfig holds the publisher selected at startup
type PublisherConfig struct {
	Default string `validate:"required"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Mode  string
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	config.Server = *loadServerConfig()
	config.Cache = *loadCacheConfig()
	config.Workflow = *loadWorkflowConfig()
	config.Publisher = PublisherConfig{Default: getEnvOrDefault("DEFAULT_PUBLISHER", "Zanichelli")}
	config.Log = LogConfig{
		Mode:  getEnvOrDefault("LOG_MODE", "dev"),
		Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// LoadDatabaseOnly is used by tools that never call the LLM (migrate, cli).
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	return loadDatabaseConfig()
}

// LoadServerOnly reads listen settings without requiring the rest
func LoadServerOnly() *ServerConfig {
	return loadServerConfig()
}

// LoadCacheOnly reads history cache settings
func LoadCacheOnly() *CacheConfig {
	return loadCacheConfig()
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:             url,
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}, nil
}

func loadAIConfig() (*AIConfig, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}

	return &AIConfig{
		OpenAIKey:   openaiKey,
		BaseURL:     strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o"),
		MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 8000),
		Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.3),
		Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 180*time.Second),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:       getEnvOrDefault("PORT", "8080"),
		ViewerPort: getEnvOrDefault("VIEWER_PORT", "8081"),
		GinMode:    getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadCacheConfig() *CacheConfig {
	return &CacheConfig{
		RedisURL:   getEnvOrDefault("REDIS_URL", ""),
		HistoryTTL: getEnvDurationOrDefault("HISTORY_CACHE_TTL", 30*time.Second),
	}
}

func loadWorkflowConfig() *WorkflowConfig {
	return &WorkflowConfig{
		PipelineTimeout:          getEnvDurationOrDefault("PIPELINE_TIMEOUT", 10*time.Minute),
		MaxAlternativeReferences: getEnvIntOrDefault("MAX_ALTERNATIVE_REFERENCES", 10),
		SessionIdleTimeout:       getEnvDurationOrDefault("SESSION_IDLE_TIMEOUT", 2*time.Hour),
	}
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fe.Namespace() + " failed '" + fe.Tag() + "' check")
		}
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
