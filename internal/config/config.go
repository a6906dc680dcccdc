package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Email    EmailConfig    `mapstructure:"email"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StripeConfig struct {
	APIKey                  string        `mapstructure:"api_key"`
	WebhookSecret           string        `mapstructure:"webhook_secret"`
	WebhookToleranceSeconds int           `mapstructure:"webhook_tolerance_seconds"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout"`
}

type BookingConfig struct {
	HoldTTL        time.Duration `mapstructure:"hold_ttl"`
	IntentTimeout  time.Duration `mapstructure:"intent_timeout"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize int           `mapstructure:"sweep_batch_size"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	RetainProcessed time.Duration `mapstructure:"retain_processed"`
	CleanupEvery    time.Duration `mapstructure:"cleanup_every"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// secrets are the values that must never live in the YAML file. They
// overlay whatever the file provided.
type secrets struct {
	DatabasePassword    string `envconfig:"DATABASE_PASSWORD"`
	RedisPassword       string `envconfig:"REDIS_PASSWORD"`
	StripeAPIKey        string `envconfig:"STRIPE_API_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	JWTSecret           string `envconfig:"JWT_SECRET"`
	SMTPPassword        string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var sec secrets
	if err := envconfig.Process("booking", &sec); err != nil {
		return nil, fmt.Errorf("failed to read environment secrets: %w", err)
	}
	applySecrets(&config, sec)
	applyDefaults(&config)

	return &config, nil
}

func applySecrets(config *Config, sec secrets) {
	if sec.DatabasePassword != "" {
		config.Database.Password = sec.DatabasePassword
	}
	if sec.RedisPassword != "" {
		config.Redis.Password = sec.RedisPassword
	}
	if sec.StripeAPIKey != "" {
		config.Stripe.APIKey = sec.StripeAPIKey
	}
	if sec.StripeWebhookSecret != "" {
		config.Stripe.WebhookSecret = sec.StripeWebhookSecret
	}
	if sec.JWTSecret != "" {
		config.JWT.Secret = sec.JWTSecret
	}
	if sec.SMTPPassword != "" {
		config.Email.Password = sec.SMTPPassword
	}
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.TimeoutSeconds == 0 {
		config.Server.TimeoutSeconds = 30
	}
	if config.Booking.HoldTTL == 0 {
		config.Booking.HoldTTL = 15 * time.Minute
	}
	if config.Booking.SweepInterval == 0 {
		config.Booking.SweepInterval = time.Minute
	}
	if config.Booking.SweepBatchSize == 0 {
		config.Booking.SweepBatchSize = 100
	}
}
