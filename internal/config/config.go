package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "MINISHOP"

// Config is read from MINISHOP_* environment variables.
type Config struct {
	ServiceName     string        `envconfig:"SERVICE_NAME" default:"minishop-storefront"`
	Env             string        `envconfig:"ENV" default:"dev"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile         string        `envconfig:"LOG_FILE"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	CartIdleTTL     time.Duration `envconfig:"CART_IDLE_TTL" default:"30m"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	OrderIDAttempts int           `envconfig:"ORDER_ID_ATTEMPTS" default:"5"`
	PublishTimeout  time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"300ms"`

	RedisURL     string `envconfig:"REDIS_URL"`
	RedisChannel string `envconfig:"REDIS_CHANNEL" default:"minishop:orders:placed"`

	SMTP SMTP `envconfig:"SMTP"`
}

// SMTP is optional; an empty Host disables mail confirmations.
type SMTP struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"orders@minishop.local"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("config: %s_HTTP_ADDR must not be empty", envPrefix)
	}
	if c.OrderIDAttempts <= 0 {
		return fmt.Errorf("config: %s_ORDER_ID_ATTEMPTS must be positive, got %d", envPrefix, c.OrderIDAttempts)
	}
	if c.CartIdleTTL < 0 || c.SweepInterval < 0 {
		return fmt.Errorf("config: cart idle TTL and sweep interval must not be negative")
	}
	if c.SMTP.Host != "" && c.SMTP.Port <= 0 {
		return fmt.Errorf("config: %s_SMTP_PORT must be positive", envPrefix)
	}
	return nil
}

func (c Config) SMTPEnabled() bool { return c.SMTP.Host != "" }

func (c Config) RedisEnabled() bool { return c.RedisURL != "" }
