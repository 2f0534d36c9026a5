// Package config loads service settings from an optional YAML file, an
// optional .env file and the process environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const minJWTSecret = 32

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	Icona struct {
		BaseURL      string        `yaml:"base_url"`
		ServiceToken string        `yaml:"service_token"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"icona"`

	JWT struct {
		Secret       string        `yaml:"secret"`
		AccessExpiry time.Duration `yaml:"access_expiry"`
	} `yaml:"jwt"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	DatabaseURL string `yaml:"database_url"`

	SMTP struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
		From string `yaml:"from"`
	} `yaml:"smtp"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func defaults() *Config {
	cfg := &Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
	}
	cfg.Icona.BaseURL = "http://localhost:4000/api"
	cfg.Icona.Timeout = 15 * time.Second
	cfg.JWT.AccessExpiry = 15 * time.Minute
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "shipping-events"
	cfg.SMTP.Host = "localhost"
	cfg.SMTP.Port = "1025"
	cfg.SMTP.From = "shipping@example.com"
	cfg.RateLimit.RPS = 10
	cfg.RateLimit.Burst = 20
	return cfg
}

// Load builds the config. path names an optional YAML file; an empty path
// falls back to CONFIG_FILE.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Icona.BaseURL = getEnv("ICONA_BASE_URL", c.Icona.BaseURL)
	c.Icona.ServiceToken = getEnv("ICONA_SERVICE_TOKEN", c.Icona.ServiceToken)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SMTP.Host = getEnv("SMTP_HOST", c.SMTP.Host)
	c.SMTP.Port = getEnv("SMTP_PORT", c.SMTP.Port)
	c.SMTP.From = getEnv("SMTP_FROM", c.SMTP.From)

	// An explicitly empty KAFKA_BROKERS disables publishing.
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}

	var err error
	if c.Icona.Timeout, err = getDuration("ICONA_TIMEOUT", c.Icona.Timeout); err != nil {
		return err
	}
	if c.JWT.AccessExpiry, err = getDuration("JWT_ACCESS_EXPIRY", c.JWT.AccessExpiry); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if c.RateLimit.RPS, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_RPS: %v", ErrInvalidConfig, err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if c.RateLimit.Burst, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_BURST: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ValidateAPI checks the settings only the HTTP service needs.
func (c *Config) ValidateAPI() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required", ErrInvalidConfig)
	}
	if len(c.JWT.Secret) < minJWTSecret {
		return fmt.Errorf("%w: JWT_SECRET must be at least %d characters long", ErrInvalidConfig, minJWTSecret)
	}
	if c.Icona.BaseURL == "" {
		return fmt.Errorf("%w: ICONA_BASE_URL is required", ErrInvalidConfig)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateConsumer checks the settings of the event consumers.
func (c *Config) ValidateConsumer() error {
	if !c.EventsEnabled() {
		return fmt.Errorf("%w: KAFKA_BROKERS is required", ErrInvalidConfig)
	}
	return nil
}

// ValidateReconciler also needs the ledger database.
func (c *Config) ValidateReconciler() error {
	if err := c.ValidateConsumer(); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is required", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) EventsEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && c.Kafka.Topic != ""
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
