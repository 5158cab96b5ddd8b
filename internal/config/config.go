// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Keygen      KeygenConfig
	Plugin      PluginOptions
	Stripe      StripeConfig
	Email       EmailConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	AllowOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	AutoMigrate  bool
}

type JWTConfig struct {
	SecretKey string
	Issuer    string
}

// KeygenConfig holds the licensing service account and the client tuning knobs.
type KeygenConfig struct {
	Account          string
	Token            string
	Host             string
	Version          string
	TimeoutMs        int
	MaxRetries       int
	InitialBackoffMs int
	DownloadTTL      int // in seconds
	WebhookSecret    string
}

func (k KeygenConfig) Timeout() time.Duration {
	return time.Duration(k.TimeoutMs) * time.Millisecond
}

func (k KeygenConfig) InitialBackoff() time.Duration {
	return time.Duration(k.InitialBackoffMs) * time.Millisecond
}

// PluginOptions controls how order items are mapped to policies and products.
type PluginOptions struct {
	PolicyMetadataKey  string
	ProductMetadataKey string
	DefaultPolicyID    string
	DefaultProductID   string
	MappingFile        string
	Mapping            LicenseMapping
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowOrigins: getEnvAsList("SERVER_ALLOW_ORIGINS", []string{"http://localhost:9000", "http://localhost:8000"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "keygen_bridge"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Issuer:    getEnv("JWT_ISSUER", "storefront"),
		},
		Keygen: KeygenConfig{
			Account:          getEnv("KEYGEN_ACCOUNT", ""),
			Token:            getEnv("KEYGEN_TOKEN", ""),
			Host:             strings.TrimRight(getEnv("KEYGEN_HOST", "https://api.keygen.sh"), "/"),
			Version:          getEnv("KEYGEN_VERSION", "1.8"),
			TimeoutMs:        getEnvAsInt("KEYGEN_TIMEOUT_MS", 10000),
			MaxRetries:       getEnvAsInt("KEYGEN_MAX_RETRIES", 3),
			InitialBackoffMs: getEnvAsInt("KEYGEN_INITIAL_BACKOFF_MS", 100),
			DownloadTTL:      getEnvAsInt("KEYGEN_DOWNLOAD_TTL", 900),
			WebhookSecret:    getEnv("KEYGEN_WEBHOOK_SECRET", ""),
		},
		Plugin: PluginOptions{
			PolicyMetadataKey:  getEnv("KEYGEN_POLICY_METADATA_KEY", "keygen_policy"),
			ProductMetadataKey: getEnv("KEYGEN_PRODUCT_METADATA_KEY", "keygen_product"),
			DefaultPolicyID:    getEnv("KEYGEN_DEFAULT_POLICY_ID", ""),
			DefaultProductID:   getEnv("KEYGEN_DEFAULT_PRODUCT_ID", ""),
			MappingFile:        getEnv("KEYGEN_MAPPING_FILE", ""),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "licenses@example.com"),
			FromName:     getEnv("FROM_NAME", "License Desk"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	mapping, err := LoadLicenseMapping(config.Plugin.MappingFile)
	if err != nil {
		return config, err
	}
	config.Plugin.Mapping = mapping

	return config, nil
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Keygen.Account == "" || c.Keygen.Token == "" {
		if c.Environment == "production" {
			return fmt.Errorf("KEYGEN_ACCOUNT and KEYGEN_TOKEN are required in production")
		}
		logrus.Warn("[keygen] Missing KEYGEN_ACCOUNT or KEYGEN_TOKEN")
	}

	if !strings.HasPrefix(c.Keygen.Host, "http://") && !strings.HasPrefix(c.Keygen.Host, "https://") {
		return fmt.Errorf("KEYGEN_HOST must be an absolute http(s) URL, got %q", c.Keygen.Host)
	}

	if c.Keygen.MaxRetries < 1 {
		return fmt.Errorf("KEYGEN_MAX_RETRIES must be at least 1")
	}

	if c.Keygen.TimeoutMs <= 0 {
		return fmt.Errorf("KEYGEN_TIMEOUT_MS must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
