package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BackendConfig selects the data source of every view.
type BackendConfig struct {
	Mode string // api or mock

	APIHost    string
	APIPort    int
	APITimeout time.Duration

	MockAuthDelay   time.Duration
	MockDelay       time.Duration
	MockTokenSecret string
}

// SessionConfig selects where credentials are kept between restarts.
type SessionConfig struct {
	Store  string // memory, file or redis
	File   string
	TTL    time.Duration
	Secure bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuditConfig struct {
	Enabled bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type MetricsConfig struct {
	Enabled bool
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 3000),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Backend: BackendConfig{
			Mode:            strings.ToLower(getEnv("BACKEND_MODE", "api")),
			APIHost:         getEnv("API_HOST", "localhost"),
			APIPort:         getEnvAsInt("API_PORT", 8080),
			APITimeout:      getEnvAsDuration("API_TIMEOUT", 0),
			MockAuthDelay:   getEnvAsDuration("MOCK_AUTH_DELAY", 500*time.Millisecond),
			MockDelay:       getEnvAsDuration("MOCK_DELAY", 300*time.Millisecond),
			MockTokenSecret: getEnv("MOCK_TOKEN_SECRET", ""),
		},
		Session: SessionConfig{
			Store:  strings.ToLower(getEnv("SESSION_STORE", "file")),
			File:   getEnv("SESSION_FILE", "data/session.json"),
			TTL:    getEnvAsDuration("SESSION_TTL", 0),
			Secure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Audit: AuditConfig{
			Enabled: getEnvAsBool("AUDIT_ENABLED", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "medpres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "medpres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			AllowedMethods: getEnvAsList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsList("CORS_ALLOWED_HEADERS", []string{"Accept", "Content-Type", "X-Request-ID"}),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}, nil
}

// Validate rejects values the host cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}

	switch c.Backend.Mode {
	case "api":
		if c.Backend.APIHost == "" {
			return fmt.Errorf("API_HOST is required in api mode")
		}
		if c.Backend.APIPort <= 0 || c.Backend.APIPort > 65535 {
			return fmt.Errorf("invalid API_PORT: %d", c.Backend.APIPort)
		}
		if c.Backend.APITimeout < 0 {
			return fmt.Errorf("API_TIMEOUT must not be negative")
		}
	case "mock":
		if c.Backend.MockAuthDelay < 0 || c.Backend.MockDelay < 0 {
			return fmt.Errorf("mock delays must not be negative")
		}
	default:
		return fmt.Errorf("invalid BACKEND_MODE %q (want api or mock)", c.Backend.Mode)
	}

	switch c.Session.Store {
	case "memory", "redis":
	case "file":
		if c.Session.File == "" {
			return fmt.Errorf("SESSION_FILE is required for the file session store")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE %q (want memory, file or redis)", c.Session.Store)
	}

	if c.Audit.Enabled && c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required when AUDIT_ENABLED is set")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (want json or console)", c.Log.Format)
	}
	return nil
}

// RedisAddr is host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// ServerAddr is the listen address of the view host.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
