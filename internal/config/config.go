package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	ModeMock = "mock"
	ModeLive = "live"

	SummarizerMock   = "mock"
	SummarizerOpenAI = "openai"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	BaseURL     string `mapstructure:"BASE_URL"`
	SecretKey   string `mapstructure:"SECRET_KEY"`
	Timezone    string `mapstructure:"TIMEZONE"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DBDSN         string `mapstructure:"DB_DSN"`
	SeedOnStartup bool   `mapstructure:"SEED_ON_STARTUP"`

	TickInterval         time.Duration `mapstructure:"TICK_INTERVAL"`
	ReminderLead         time.Duration `mapstructure:"REMINDER_LEAD"`
	FeedbackRequestDelay time.Duration `mapstructure:"FEEDBACK_REQUEST_DELAY"`
	ConsolidationDelay   time.Duration `mapstructure:"CONSOLIDATION_DELAY"`
	SlotStep             time.Duration `mapstructure:"SLOT_STEP"`
	FeedbackTokenTTL     time.Duration `mapstructure:"FEEDBACK_TOKEN_TTL"`
	MeetingBaseURL       string        `mapstructure:"MEETING_BASE_URL"`

	Notifier       string `mapstructure:"NOTIFIER"`
	AWSRegion      string `mapstructure:"AWS_REGION"`
	SESFrom        string `mapstructure:"SES_FROM"`
	SNSTopicARN    string `mapstructure:"SNS_TOPIC_ARN"`
	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `mapstructure:"TELEGRAM_CHAT_ID"`

	Summarizer        string        `mapstructure:"SUMMARIZER"`
	OpenAIAPIKey      string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel       string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL     string        `mapstructure:"OPENAI_BASE_URL"`
	SummarizerTimeout time.Duration `mapstructure:"SUMMARIZER_TIMEOUT"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	LockTTL       time.Duration `mapstructure:"LOCK_TTL"`

	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
}

var defaults = map[string]any{
	"ENV":                     "development",
	"LOG_LEVEL":               "info",
	"HTTP_ADDR":               ":8000",
	"BASE_URL":                "http://127.0.0.1:8000",
	"SECRET_KEY":              "dev-secret-change-me",
	"TIMEZONE":                "Europe/Moscow",
	"STORAGE_DRIVER":          StorageMemory,
	"DB_DSN":                  "",
	"SEED_ON_STARTUP":         true,
	"TICK_INTERVAL":           "30s",
	"REMINDER_LEAD":           "60m",
	"FEEDBACK_REQUEST_DELAY":  "1m",
	"CONSOLIDATION_DELAY":     "0s",
	"SLOT_STEP":               "15m",
	"FEEDBACK_TOKEN_TTL":      "0s",
	"MEETING_BASE_URL":        "https://meet.jit.si",
	"NOTIFIER":                ModeMock,
	"AWS_REGION":              "eu-west-1",
	"SES_FROM":                "",
	"SNS_TOPIC_ARN":           "",
	"TELEGRAM_TOKEN":          "",
	"TELEGRAM_CHAT_ID":        0,
	"SUMMARIZER":              SummarizerMock,
	"OPENAI_API_KEY":          "",
	"OPENAI_MODEL":            "gpt-4.1-mini",
	"OPENAI_BASE_URL":         "https://api.openai.com/v1",
	"SUMMARIZER_TIMEOUT":      "30s",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"LOCK_TTL":                "30s",
	"GOOGLE_CREDENTIALS_FILE": "",
}

// Load reads .env (if present), an optional config.yaml from the working
// directory and finally the process environment, which wins.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return load(viper.New(), ".")
}

func load(v *viper.Viper, configDir string) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.MeetingBaseURL = strings.TrimRight(cfg.MeetingBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	for name, d := range map[string]time.Duration{
		"TICK_INTERVAL":      c.TickInterval,
		"REMINDER_LEAD":      c.ReminderLead,
		"SLOT_STEP":          c.SlotStep,
		"SUMMARIZER_TIMEOUT": c.SummarizerTimeout,
		"LOCK_TTL":           c.LockTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.FeedbackRequestDelay < 0 {
		errs = append(errs, errors.New("FEEDBACK_REQUEST_DELAY must not be negative"))
	}
	if c.ConsolidationDelay < 0 {
		errs = append(errs, errors.New("CONSOLIDATION_DELAY must not be negative"))
	}
	if c.FeedbackTokenTTL < 0 {
		errs = append(errs, errors.New("FEEDBACK_TOKEN_TTL must not be negative"))
	}

	if c.SecretKey == "" || (c.IsProduction() && c.SecretKey == defaults["SECRET_KEY"]) {
		errs = append(errs, errors.New("SECRET_KEY must be set"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("unknown TIMEZONE %q", c.Timezone))
	}

	switch c.Notifier {
	case ModeMock:
	case ModeLive:
		if c.SESFrom == "" {
			errs = append(errs, errors.New("SES_FROM is required for the live notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}

	switch c.Summarizer {
	case SummarizerMock, SummarizerOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown SUMMARIZER %q", c.Summarizer))
	}

	return errors.Join(errs...)
}

// Location returns the display time zone for notifications.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
