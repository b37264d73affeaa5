package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Monitor     MonitorConfig     `toml:"monitor"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Amadeus  AmadeusConfig  `toml:"amadeus"`
	Telegram TelegramConfig `toml:"telegram"`
}

// AmadeusConfig contains Amadeus flight API credentials.
type AmadeusConfig struct {
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	BaseURL   string `toml:"base_url"`
}

// TelegramConfig contains Telegram Bot API settings.
type TelegramConfig struct {
	BotToken       string `toml:"bot_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	RateLimit   int      `toml:"rate_limit"`
	CORSOrigins []string `toml:"cors_origins"`
}

// MonitorConfig contains price monitoring settings.
type MonitorConfig struct {
	CheckInterval          int     `toml:"check_interval"`
	Jitter                 int     `toml:"jitter"`
	DefaultThreshold       float64 `toml:"default_threshold"`
	CacheTTL               int     `toml:"cache_ttl"`
	MaxRequestsPerUser     int     `toml:"max_requests_per_user"`
	MaxNotificationsPerDay int     `toml:"max_notifications_per_day"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Secrets can be supplied or overridden through the environment:
// AMADEUS_API_KEY, AMADEUS_API_SECRET and TELEGRAM_BOT_TOKEN take
// precedence over their file counterparts.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overrides credential fields with environment values when present.
func (c *Config) applyEnv() {
	if v := os.Getenv("AMADEUS_API_KEY"); v != "" {
		c.Credentials.Amadeus.APIKey = v
	}
	if v := os.Getenv("AMADEUS_API_SECRET"); v != "" {
		c.Credentials.Amadeus.APISecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Credentials.Telegram.BotToken = v
	}
}
