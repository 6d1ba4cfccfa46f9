package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, time.Hour, cfg.ReminderLead)
	assert.Equal(t, time.Minute, cfg.FeedbackRequestDelay)
	assert.Zero(t, cfg.ConsolidationDelay)
	assert.Equal(t, 15*time.Minute, cfg.SlotStep)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.BaseURL)
	assert.Equal(t, ModeMock, cfg.Notifier)
	assert.Equal(t, SummarizerMock, cfg.Summarizer)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/autopilot")
	t.Setenv("TICK_INTERVAL", "5s")
	t.Setenv("BASE_URL", "https://hire.example.com/")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://localhost/autopilot", cfg.DBDSN)
	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	assert.Equal(t, "https://hire.example.com", cfg.BaseURL)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("REMINDER_LEAD: 2h\nSUMMARIZER: openai\n"), 0o600))

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.ReminderLead)
	assert.Equal(t, SummarizerOpenAI, cfg.Summarizer)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := load(viper.New(), t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"postgres without dsn", func(c *Config) { c.StorageDriver = StoragePostgres }},
		{"unknown driver", func(c *Config) { c.StorageDriver = "sqlite" }},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }},
		{"negative delay", func(c *Config) { c.FeedbackRequestDelay = -time.Second }},
		{"negative consolidation delay", func(c *Config) { c.ConsolidationDelay = -time.Second }},
		{"default secret in production", func(c *Config) { c.Environment = "production" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"live notifier without sender", func(c *Config) { c.Notifier = ModeLive }},
		{"unknown summarizer", func(c *Config) { c.Summarizer = "watsonx" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
