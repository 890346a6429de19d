package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the document store: "mongo" (default) or "memory".
type StoreConfig struct {
	Backend string
}

type MongoDBConfig struct {
	URI               string
	Database          string
	RecordsCollection string
	AuditCollection   string
	Timeout           time.Duration
	ConnectAttempts   int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// MinIOConfig holds the object storage target for audit exports.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type LogConfig struct {
	Level string
	File  string
}

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("STORE_BACKEND", BackendMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017/")
	v.SetDefault("MONGODB_DATABASE", "API_bigdata")
	v.SetDefault("MONGODB_RECORDS_COLLECTION", "bigdata")
	v.SetDefault("MONGODB_AUDIT_COLLECTION", "audit_logs")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "siret-audit")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		},
		MongoDB: MongoDBConfig{
			URI:               v.GetString("MONGODB_URI"),
			Database:          v.GetString("MONGODB_DATABASE"),
			RecordsCollection: v.GetString("MONGODB_RECORDS_COLLECTION"),
			AuditCollection:   v.GetString("MONGODB_AUDIT_COLLECTION"),
			Timeout:           time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectAttempts:   v.GetInt("MONGODB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND=%s", BackendMongo)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}
	if c.MongoDB.RecordsCollection == "" || c.MongoDB.AuditCollection == "" {
		return fmt.Errorf("collection names must not be empty")
	}
	if c.MongoDB.RecordsCollection == c.MongoDB.AuditCollection {
		return fmt.Errorf("records and audit collections must differ (both %q)", c.MongoDB.AuditCollection)
	}
	if c.MongoDB.ConnectAttempts < 1 {
		c.MongoDB.ConnectAttempts = 1
	}
	return nil
}
