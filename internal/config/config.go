package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	JWT       JWTConfig
	Slack     SlackConfig
	OpenAI    OpenAIConfig
	Calendar  CalendarConfig
	Mail      MailConfig
	Retention RetentionConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings for the audit event feed.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// JWTConfig holds token verification settings. Tokens are issued by the
// platform auth service; this subsystem only verifies them.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// SlackConfig holds the outbound messaging settings.
type SlackConfig struct {
	BotToken string
}

// OpenAIConfig holds transcription/vision provider settings.
type OpenAIConfig struct {
	APIKey    string
	ChatModel string
}

// CalendarConfig holds the external booking service settings.
type CalendarConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MailConfig holds the transactional mail service settings.
type MailConfig struct {
	BaseURL      string
	APIKey       string
	FromAddr     string
	HelpdeskAddr string
	Timeout      time.Duration
}

// RetentionConfig bounds how long audit entries are kept.
type RetentionConfig struct {
	Window        time.Duration
	PurgeInterval time.Duration
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("CONCIERGE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("CONCIERGE_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("CONCIERGE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("CONCIERGE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("CONCIERGE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	calendarTimeout, err := getEnvDuration("CONCIERGE_CALENDAR_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	mailTimeout, err := getEnvDuration("CONCIERGE_MAIL_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	retentionWindow, err := getEnvDuration("CONCIERGE_AUDIT_RETENTION", 90*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	purgeInterval, err := getEnvDuration("CONCIERGE_AUDIT_PURGE_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("CONCIERGE_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("CONCIERGE_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("CONCIERGE_DB_USER", "concierge"),
			Password: getEnv("CONCIERGE_DB_PASSWORD", ""),
			DBName:   getEnv("CONCIERGE_DB_NAME", "concierge_dev"),
			SSLMode:  getEnv("CONCIERGE_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("CONCIERGE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("CONCIERGE_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:         getEnv("CONCIERGE_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		JWT: JWTConfig{
			Secret: getEnv("CONCIERGE_JWT_SECRET", ""),
		},
		Slack: SlackConfig{
			BotToken: getEnv("CONCIERGE_SLACK_BOT_TOKEN", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:    getEnv("CONCIERGE_OPENAI_API_KEY", ""),
			ChatModel: getEnv("CONCIERGE_OPENAI_CHAT_MODEL", ""),
		},
		Calendar: CalendarConfig{
			BaseURL: getEnv("CONCIERGE_CALENDAR_BASE_URL", ""),
			APIKey:  getEnv("CONCIERGE_CALENDAR_API_KEY", ""),
			Timeout: calendarTimeout,
		},
		Mail: MailConfig{
			BaseURL:      getEnv("CONCIERGE_MAIL_BASE_URL", ""),
			APIKey:       getEnv("CONCIERGE_MAIL_API_KEY", ""),
			FromAddr:     getEnv("CONCIERGE_MAIL_FROM", "no-reply@concierge.local"),
			HelpdeskAddr: getEnv("CONCIERGE_MAIL_HELPDESK", ""),
			Timeout:      mailTimeout,
		},
		Retention: RetentionConfig{
			Window:        retentionWindow,
			PurgeInterval: purgeInterval,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("CONCIERGE_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("CONCIERGE_JWT_SECRET must be at least 32 characters")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("CONCIERGE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("CONCIERGE_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("CONCIERGE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("CONCIERGE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Retention.Window <= 0 {
		return fmt.Errorf("CONCIERGE_AUDIT_RETENTION must be positive, got %s", c.Retention.Window)
	}
	if c.Retention.PurgeInterval <= 0 {
		return fmt.Errorf("CONCIERGE_AUDIT_PURGE_INTERVAL must be positive, got %s", c.Retention.PurgeInterval)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
