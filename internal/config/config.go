package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Search     SearchConfig     `yaml:"search"`
	Emblematic EmblematicConfig `yaml:"emblematic"`
	Chatbot    ChatbotConfig    `yaml:"chatbot"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Logging    LoggingConfig    `yaml:"logging"`
	Timezone   string           `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// EmblematicConfig contains CRM feed settings. The token falls back to the
// EMBLEMATIC_TOKEN environment variable so it can stay out of the file.
type EmblematicConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ChatbotConfig contains retention settings for chat conversations
type ChatbotConfig struct {
	StaleAfterHours int `yaml:"stale_after_hours"`
	RetentionDays   int `yaml:"retention_days"`
}

// RateLimitConfig contains per-visitor limits for the public endpoints
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// SchedulerConfig contains maintenance job settings
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	DailyRunTime     string `yaml:"daily_run_time"`
	ReindexOnRun     bool   `yaml:"reindex_on_run"`
	CleanupOnRun     bool   `yaml:"cleanup_on_run"`
	CleanupDryRun    bool   `yaml:"cleanup_dry_run"`
	MaxDeletionCount int    `yaml:"max_deletion_count"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type: "mysql",
			MySQL: MySQLConfig{
				Host: "localhost",
				Port: 3306,
			},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Search: SearchConfig{
			Enabled: false,
			Meilisearch: MeilisearchConfig{
				Host: "http://localhost:7700",
			},
		},
		Emblematic: EmblematicConfig{
			BaseURL:        "https://app.emblematic.es/api/v1",
			TimeoutSeconds: 15,
		},
		Chatbot: ChatbotConfig{
			StaleAfterHours: 24,
			RetentionDays:   90,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 20,
			RequestsPerHour:   200,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			DailyRunTime:     "03:00",
			ReindexOnRun:     true,
			CleanupOnRun:     true,
			CleanupDryRun:    false,
			MaxDeletionCount: 10000,
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
		Timezone: "Europe/Madrid",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		config.applyEnv()
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overlays secrets and connection values from the environment.
func (c *Config) applyEnv() {
	if token := os.Getenv("EMBLEMATIC_TOKEN"); token != "" {
		c.Emblematic.Token = token
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.MySQL.Host = host
		c.Database.Postgres.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.MySQL.User = user
		c.Database.Postgres.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.MySQL.Password = password
		c.Database.Postgres.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		c.Database.MySQL.Database = name
		c.Database.Postgres.Database = name
	}
	if key := os.Getenv("MEILISEARCH_API_KEY"); key != "" {
		c.Search.Meilisearch.APIKey = key
	}
}

// GetTimeout returns the feed client timeout as a duration
func (c *EmblematicConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
