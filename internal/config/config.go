package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bookingd/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig          `yaml:"app"`
	Logging       LoggingConfig      `yaml:"logging"`
	Monitoring    MonitoringConfig   `yaml:"monitoring"`
	Booking       BookingConfig      `yaml:"booking"`
	Payment       PaymentConfig      `yaml:"payment"`
	Notifications NotificationConfig `yaml:"notifications"`
	Redis         RedisConfig        `yaml:"redis"`
	Telegram      TelegramConfig     `yaml:"telegram"`
	Exports       ExportConfig       `yaml:"exports"`
	Items         []models.Item      `yaml:"items"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BookingConfig struct {
	CallTimeout             time.Duration `yaml:"call_timeout"`
	CompensateFailedReserve *bool         `yaml:"compensate_failed_reserve"`
}

// Compensate reports whether a charge is refunded when the reservation after it fails.
// Enabled unless explicitly switched off.
func (c BookingConfig) Compensate() bool {
	return c.CompensateFailedReserve == nil || *c.CompensateFailedReserve
}

const (
	PaymentProviderSimulated = "simulated"
	PaymentProviderStripe    = "stripe"
)

type PaymentConfig struct {
	Provider         string        `yaml:"provider"`
	Currency         string        `yaml:"currency"`
	SimulatedLatency time.Duration `yaml:"simulated_latency"`
	Stripe           StripeConfig  `yaml:"stripe"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
}

const (
	SinkLog      = "log"
	SinkEvents   = "events"
	SinkRedis    = "redis"
	SinkTelegram = "telegram"
)

type NotificationConfig struct {
	Sinks     []string                `yaml:"sinks"`
	Async     bool                    `yaml:"async"`
	QueueSize int                     `yaml:"queue_size"`
	RedisKey  string                  `yaml:"redis_key"`
	RateLimit NotificationLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig             `yaml:"retry"`
}

type NotificationLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Payment.Provider {
	case PaymentProviderSimulated:
	case PaymentProviderStripe:
		if c.Payment.Stripe.SecretKey == "" {
			return errors.New("payment.stripe.secret_key is required for the stripe provider")
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}

	for _, sink := range c.Notifications.Sinks {
		switch sink {
		case SinkLog, SinkEvents:
		case SinkRedis:
			if c.Redis.Address == "" {
				return errors.New("redis.address is required for the redis notification sink")
			}
		case SinkTelegram:
			if c.Telegram.BotToken == "" || c.Telegram.ChatID == 0 {
				return errors.New("telegram.bot_token and telegram.chat_id are required for the telegram notification sink")
			}
		default:
			return fmt.Errorf("unknown notification sink %q", sink)
		}
	}

	return ValidateItems(c.Items)
}

func ValidateItems(items []models.Item) error {
	itemIDs := make(map[string]bool)
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return fmt.Errorf("item '%s' has empty ID", item.Name)
		}
		if itemIDs[id] {
			return fmt.Errorf("duplicate item ID found: %s", id)
		}
		itemIDs[id] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bookingd"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Booking.CallTimeout <= 0 {
		c.Booking.CallTimeout = models.DefaultCallTimeout * time.Second
	}

	if c.Payment.Provider == "" {
		c.Payment.Provider = PaymentProviderSimulated
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "usd"
	}

	if len(c.Notifications.Sinks) == 0 {
		c.Notifications.Sinks = []string{SinkLog}
	}
	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = models.NotificationQueueSize
	}
	if c.Notifications.RedisKey == "" {
		c.Notifications.RedisKey = "bookings:notifications"
	}
	if c.Notifications.RateLimit.RPS == 0 {
		c.Notifications.RateLimit.RPS = models.NotificationRateLimitRPS
	}
	if c.Notifications.RateLimit.Burst == 0 {
		c.Notifications.RateLimit.Burst = models.NotificationRateLimitBurst
	}
	if c.Notifications.Retry.MaxRetries == 0 {
		c.Notifications.Retry.MaxRetries = 5
	}
	if c.Notifications.Retry.InitialDelay == 0 {
		c.Notifications.Retry.InitialDelay = 500 * time.Millisecond
	}
	if c.Notifications.Retry.MaxDelay == 0 {
		c.Notifications.Retry.MaxDelay = 30 * time.Second
	}
	if c.Notifications.Retry.BackoffFactor == 0 {
		c.Notifications.Retry.BackoffFactor = 2
	}

	for i := range c.Items {
		c.Items[i].ID = strings.TrimSpace(c.Items[i].ID)
	}
}
