package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_API_URL", "TELEGRAM_STICKER_ID",
	"TELEGRAM_POLL_TIMEOUT", "TELEGRAM_POLL_BACKOFF", "TELEGRAM_SEND_TIMEOUT",
	"TELEGRAM_SEND_RATE", "MOCK_SEND", "LOCAL_STORAGE", "STORAGE_BUCKET",
	"GOOGLE_CREDENTIALS_JSON", "SQLITE_PATH", "GREET_CRON", "GREET_HOUR",
	"GREET_WINDOW", "GREET_QUEUE_SIZE", "PORT", "LOG_LEVEL",
}

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Errorf("APIURL = %q", cfg.Telegram.APIURL)
	}
	if cfg.Telegram.StickerID != DefaultStickerID {
		t.Errorf("StickerID = %q, want default", cfg.Telegram.StickerID)
	}
	if cfg.Telegram.PollTimeout != 20*time.Second {
		t.Errorf("PollTimeout = %s, want 20s", cfg.Telegram.PollTimeout)
	}
	if cfg.Telegram.PollBackoff != 500*time.Millisecond {
		t.Errorf("PollBackoff = %s, want 500ms", cfg.Telegram.PollBackoff)
	}
	if cfg.Telegram.SendTimeout != 10*time.Second {
		t.Errorf("SendTimeout = %s, want 10s", cfg.Telegram.SendTimeout)
	}
	if cfg.Telegram.SendRate != 25 {
		t.Errorf("SendRate = %v, want 25", cfg.Telegram.SendRate)
	}
	if cfg.Telegram.MockSend {
		t.Error("MockSend = true, want false")
	}
	if cfg.Greeter.Cron != "* * * * *" || cfg.Greeter.Hour != 9 || cfg.Greeter.Window != 5*time.Minute || cfg.Greeter.QueueSize != 16 {
		t.Errorf("Greeter = %+v", cfg.Greeter)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Level = %q", cfg.Logger.Level)
	}
	if cfg.Storage.LocalPath != "./data" {
		t.Errorf("LocalPath = %q", cfg.Storage.LocalPath)
	}
	if got := cfg.Storage.Backend(); got != BackendLocal {
		t.Errorf("Backend() = %q, want %q", got, BackendLocal)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_STICKER_ID", "")
	t.Setenv("TELEGRAM_POLL_TIMEOUT", "45s")
	t.Setenv("MOCK_SEND", "true")
	t.Setenv("GREET_HOUR", "7")
	t.Setenv("GREET_WINDOW", "10m")
	t.Setenv("GREET_CRON", "*/2 * * * *")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_BUCKET", "greeter-state")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.StickerID != "" {
		t.Errorf("StickerID = %q, an explicit empty value should disable the sticker", cfg.Telegram.StickerID)
	}
	if cfg.Telegram.PollTimeout != 45*time.Second {
		t.Errorf("PollTimeout = %s", cfg.Telegram.PollTimeout)
	}
	if !cfg.Telegram.MockSend {
		t.Error("MockSend = false")
	}
	if cfg.Greeter.Hour != 7 || cfg.Greeter.Window != 10*time.Minute || cfg.Greeter.Cron != "*/2 * * * *" {
		t.Errorf("Greeter = %+v", cfg.Greeter)
	}
	if cfg.Server.Port != "9090" || cfg.Logger.Level != "debug" {
		t.Errorf("Server = %+v, Logger = %+v", cfg.Server, cfg.Logger)
	}
	if got := cfg.Storage.Backend(); got != BackendGCS {
		t.Errorf("Backend() = %q, want %q", got, BackendGCS)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		env     map[string]string
		name    string
		wantErr string
	}{
		{name: "missing token", env: map[string]string{}, wantErr: "TELEGRAM_BOT_TOKEN"},
		{name: "bad cron", env: map[string]string{"GREET_CRON": "at nine"}, wantErr: "cron"},
		{name: "hour too large", env: map[string]string{"GREET_HOUR": "24"}, wantErr: "hour"},
		{name: "negative hour", env: map[string]string{"GREET_HOUR": "-1"}, wantErr: "hour"},
		{name: "zero window", env: map[string]string{"GREET_WINDOW": "0s"}, wantErr: "window"},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "verbose"}, wantErr: "log level"},
		{name: "unparseable duration", env: map[string]string{"TELEGRAM_SEND_TIMEOUT": "soon"}, wantErr: "TELEGRAM_SEND_TIMEOUT"},
		{name: "zero queue", env: map[string]string{"GREET_QUEUE_SIZE": "0"}, wantErr: "queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.name != "missing token" {
				t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  StorageConfig
		want string
	}{
		{name: "sqlite wins", cfg: StorageConfig{SQLitePath: "x.db", Bucket: "b", LocalPath: "./data"}, want: BackendSQLite},
		{name: "bucket over local", cfg: StorageConfig{Bucket: "b", LocalPath: "./data"}, want: BackendGCS},
		{name: "local", cfg: StorageConfig{LocalPath: "./data"}, want: BackendLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Backend(); got != tt.want {
				t.Errorf("Backend() = %q, want %q", got, tt.want)
			}
		})
	}
}
