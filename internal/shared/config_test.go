package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "farewatch.db" {
			t.Errorf("expected database path farewatch.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Monitor.DefaultThreshold != 5.0 {
			t.Errorf("expected default threshold 5.0, got %f", config.Monitor.DefaultThreshold)
		}

		if config.Monitor.CheckInterval != 120 {
			t.Errorf("expected check interval 120, got %d", config.Monitor.CheckInterval)
		}

		if config.Credentials.Amadeus.BaseURL != "https://test.api.amadeus.com" {
			t.Errorf("expected amadeus test base URL, got %s", config.Credentials.Amadeus.BaseURL)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 9090
rate_limit = 200

[credentials.amadeus]
api_key = "test_key"
api_secret = "test_secret"
base_url = "https://api.amadeus.com"

[credentials.telegram]
bot_token = "123:abc"
timeout_seconds = 10
max_retries = 2

[monitor]
check_interval = 60
default_threshold = 3.5
max_requests_per_user = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 9090 {
			t.Errorf("expected server port 9090, got %d", config.Server.Port)
		}

		if config.Credentials.Amadeus.APIKey != "test_key" {
			t.Errorf("expected amadeus api key test_key, got %s", config.Credentials.Amadeus.APIKey)
		}

		if config.Monitor.DefaultThreshold != 3.5 {
			t.Errorf("expected threshold 3.5, got %f", config.Monitor.DefaultThreshold)
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "env:token")
		t.Setenv("AMADEUS_API_KEY", "env_key")

		config := DefaultConfig()

		if config.Credentials.Telegram.BotToken != "env:token" {
			t.Errorf("expected bot token from environment, got %s", config.Credentials.Telegram.BotToken)
		}
		if config.Credentials.Amadeus.APIKey != "env_key" {
			t.Errorf("expected amadeus key from environment, got %s", config.Credentials.Amadeus.APIKey)
		}
	})
}
