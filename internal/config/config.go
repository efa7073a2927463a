package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration of the training service
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	AppURL      string

	Database DatabaseConfig
	RedisURL string

	Session SessionConfig
	Vimeo   VimeoConfig
	Kafka   KafkaConfig
	CORS    CORSConfig
	Admin   AdminBootstrapConfig
	Tracing TracingConfig
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the postgres connection string, preferring DATABASE_URL
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type SessionConfig struct {
	JWTSecret    string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type VimeoConfig struct {
	AccessToken       string
	APIURL            string
	TusThresholdBytes int64
	Timeout           time.Duration
}

type KafkaConfig struct {
	Brokers []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AdminBootstrapConfig struct {
	Name     string
	Email    string
	Password string
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads configuration from the environment, loading .env first when present
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: strings.ToLower(v.GetString("ENVIRONMENT")),
		LogLevel:    parseLogLevel(v.GetString("LOG_LEVEL")),
		AppURL:      strings.TrimRight(v.GetString("APP_URL"), "/"),
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		RedisURL: v.GetString("REDIS_URL"),
		Session: SessionConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			TTL:          v.GetDuration("SESSION_TTL"),
			CookieName:   v.GetString("SESSION_COOKIE_NAME"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		Vimeo: VimeoConfig{
			AccessToken:       v.GetString("VIMEO_ACCESS_TOKEN"),
			APIURL:            strings.TrimRight(v.GetString("VIMEO_API_URL"), "/"),
			TusThresholdBytes: v.GetInt64("VIMEO_TUS_THRESHOLD_BYTES"),
			Timeout:           v.GetDuration("VIMEO_TIMEOUT"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Admin: AdminBootstrapConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Tracing: TracingConfig{
			Enabled:      v.GetBool("OTEL_ENABLED"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		},
	}

	if cfg.IsProduction() {
		cfg.Session.CookieSecure = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_URL", "http://localhost:3000")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "treinamentos")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)

	v.SetDefault("REDIS_URL", "")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("SESSION_COOKIE_NAME", "token")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("VIMEO_ACCESS_TOKEN", "")
	v.SetDefault("VIMEO_API_URL", "https://api.vimeo.com")
	v.SetDefault("VIMEO_TUS_THRESHOLD_BYTES", int64(200*1024*1024))
	v.SetDefault("VIMEO_TIMEOUT", 30*time.Second)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("ADMIN_NAME", "Administrador")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "treinamentos-api")
}

func (c *Config) validate() error {
	if c.Session.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Session.JWTSecret = "development-secret-change-me"
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Vimeo.TusThresholdBytes <= 0 {
		return fmt.Errorf("VIMEO_TUS_THRESHOLD_BYTES must be positive")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
