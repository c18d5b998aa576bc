package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/upb/shopping-assistant/utils"
)

// DefaultAllowedOrigin is the storefront widget origin
const DefaultAllowedOrigin = "https://smart-shopping-assistant-awff.vercel.app"

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	CORS          CORSConfig
	Bedrock       BedrockConfig
	Pinecone      PineconeConfig
	Pipeline      PipelineConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Environment   string `env:"ENVIRONMENT" validate:"required"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST"`
	Port            int           `env:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// CORSConfig holds the single origin allowed to call the API from a browser
type CORSConfig struct {
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" validate:"required,url"`
}

// BedrockConfig holds the model runtime configuration
type BedrockConfig struct {
	Region           string `env:"AWS_REGION" validate:"required"`
	AccessKeyID      string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey  string `env:"AWS_SECRET_ACCESS_KEY"`
	EmbeddingModelID string `env:"BEDROCK_EMBEDDING_MODEL_ID" validate:"required"`
	ChatModelID      string `env:"BEDROCK_CHAT_MODEL_ID" validate:"required"`
}

// PineconeConfig holds the vector index configuration.
// IndexHost skips the controller lookup when set.
type PineconeConfig struct {
	APIKey        string `env:"PINECONE_API_KEY"`
	IndexName     string `env:"PINECONE_INDEX_NAME"`
	IndexHost     string `env:"PINECONE_INDEX_HOST"`
	ControllerURL string `env:"PINECONE_CONTROLLER_URL" validate:"required,url"`
}

// PipelineConfig holds answer pipeline tuning
type PipelineConfig struct {
	TopK            int           `env:"RETRIEVAL_TOP_K" validate:"gte=1,lte=100"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" validate:"gt=0"`
}

// DatabaseConfig holds the optional PostgreSQL audit store configuration.
// An empty URL disables the interaction audit.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" validate:"gte=1"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"`
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string `env:"LOG_LEVEL" validate:"required"`
	LogFormat      string `env:"LOG_FORMAT" validate:"oneof=json console text"`
	MetricsEnabled bool   `env:"METRICS_ENABLED"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 3001),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigin: normalizeOrigin(getEnv("CORS_ALLOWED_ORIGIN", DefaultAllowedOrigin)),
		},
		Bedrock: BedrockConfig{
			Region:           getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
			EmbeddingModelID: getEnv("BEDROCK_EMBEDDING_MODEL_ID", "amazon.titan-embed-text-v2:0"),
			ChatModelID:      getEnv("BEDROCK_CHAT_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		},
		Pinecone: PineconeConfig{
			APIKey:        getEnv("PINECONE_API_KEY", ""),
			IndexName:     getEnv("PINECONE_INDEX_NAME", ""),
			IndexHost:     getEnv("PINECONE_INDEX_HOST", ""),
			ControllerURL: getEnv("PINECONE_CONTROLLER_URL", "https://api.pinecone.io"),
		},
		Pipeline: PipelineConfig{
			TopK:            getEnvAsInt("RETRIEVAL_TOP_K", 3),
			UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints and the production-only requirements
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	if c.IsProduction() {
		if c.Pinecone.APIKey == "" {
			return fmt.Errorf("pinecone api key is required in production")
		}
		if c.Pinecone.IndexName == "" && c.Pinecone.IndexHost == "" {
			return fmt.Errorf("pinecone index name or host is required in production")
		}
		if (c.Bedrock.AccessKeyID == "") != (c.Bedrock.SecretAccessKey == "") {
			return fmt.Errorf("aws access key id and secret access key must be set together")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Enabled reports whether an audit database is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LogString returns a safe string for logging (no credentials)
func (c *DatabaseConfig) LogString() string {
	if c.URL == "" {
		return "disabled"
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// normalizeOrigin drops trailing slashes; browsers never send them in Origin.
func normalizeOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
