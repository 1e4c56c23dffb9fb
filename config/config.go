// Package config loads the bot's configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultStickerID is the sticker sent ahead of every greeting.
const DefaultStickerID = "CAACAgIAAxkBAAMHYoAnQ-mjFlYcQI7MY6ofspGVa50AAjkBAAIQIQIQ0zO07gSDOlQkBA"

// Storage backends, in order of precedence.
const (
	BackendSQLite = "sqlite"
	BackendGCS    = "gcs"
	BackendLocal  = "local"
)

// Config is the complete runtime configuration.
type Config struct {
	Telegram TelegramConfig
	Storage  StorageConfig
	Greeter  GreeterConfig
	Server   ServerConfig
	Logger   LoggerConfig
}

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	Token       string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	APIURL      string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	StickerID   string        `envconfig:"TELEGRAM_STICKER_ID" default:"CAACAgIAAxkBAAMHYoAnQ-mjFlYcQI7MY6ofspGVa50AAjkBAAIQIQIQ0zO07gSDOlQkBA"`
	PollTimeout time.Duration `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"20s"`
	PollBackoff time.Duration `envconfig:"TELEGRAM_POLL_BACKOFF" default:"500ms"`
	SendTimeout time.Duration `envconfig:"TELEGRAM_SEND_TIMEOUT" default:"10s"`
	SendRate    float64       `envconfig:"TELEGRAM_SEND_RATE" default:"25"`
	MockSend    bool          `envconfig:"MOCK_SEND" default:"false"` // Log sends instead of calling the API
}

// StorageConfig selects where subscribers and the watermark are kept.
type StorageConfig struct {
	LocalPath       string `envconfig:"LOCAL_STORAGE" default:"./data"`
	Bucket          string `envconfig:"STORAGE_BUCKET"`
	CredentialsJSON string `envconfig:"GOOGLE_CREDENTIALS_JSON"`
	SQLitePath      string `envconfig:"SQLITE_PATH"`
}

// GreeterConfig configures the greeting schedule.
type GreeterConfig struct {
	Cron      string        `envconfig:"GREET_CRON" default:"* * * * *"`
	Hour      int           `envconfig:"GREET_HOUR" default:"9"`
	Window    time.Duration `envconfig:"GREET_WINDOW" default:"5m"`
	QueueSize int           `envconfig:"GREET_QUEUE_SIZE" default:"16"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// LoggerConfig configures logging.
type LoggerConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file, then the environment, and validates the
// result. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the bot cannot run with.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.PollTimeout < 0 {
		return errors.New("poll timeout must not be negative")
	}
	if c.Telegram.PollBackoff <= 0 {
		return errors.New("poll backoff must be positive")
	}
	if c.Telegram.SendTimeout <= 0 {
		return errors.New("send timeout must be positive")
	}
	if c.Telegram.SendRate < 0 {
		return errors.New("send rate must not be negative")
	}

	if !gronx.IsValid(c.Greeter.Cron) {
		return fmt.Errorf("invalid greet cron expression: %q", c.Greeter.Cron)
	}
	if c.Greeter.Hour < 0 || c.Greeter.Hour > 23 {
		return fmt.Errorf("greet hour must be between 0 and 23, got %d", c.Greeter.Hour)
	}
	if c.Greeter.Window <= 0 || c.Greeter.Window > time.Hour {
		return fmt.Errorf("greet window must be in (0, 1h], got %s", c.Greeter.Window)
	}
	if c.Greeter.QueueSize <= 0 {
		return errors.New("greet queue size must be positive")
	}

	if c.Storage.SQLitePath == "" && c.Storage.Bucket == "" && c.Storage.LocalPath == "" {
		return errors.New("one of SQLITE_PATH, STORAGE_BUCKET or LOCAL_STORAGE is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	return nil
}

// Backend reports which storage backend the configuration selects.
func (c *StorageConfig) Backend() string {
	switch {
	case c.SQLitePath != "":
		return BackendSQLite
	case c.Bucket != "":
		return BackendGCS
	default:
		return BackendLocal
	}
}
