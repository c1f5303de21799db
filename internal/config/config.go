package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigPath      = "config.toml"
	DefaultEnvPath         = ".env"
	DefaultHTTPAddr        = ":8080"
	DefaultJWTExpiresIn    = "24h"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "beybot"
	DefaultPGSSLMode       = "disable"
	DefaultGeminiBaseURL   = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel     = "gemini-2.0-flash-exp"
	DefaultGraphBaseURL    = "https://graph.facebook.com"
	DefaultGraphVersion    = "v18.0"
	DefaultQueueWorkers    = 4
	DefaultQueueBuffer     = 256
	DefaultQueueName       = "ai"
	DefaultRateLimitMax    = 60
	DefaultRateLimitWindow = 60
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Queue     QueueConfig     `toml:"queue"`
	Gemini    GeminiConfig    `toml:"gemini"`
	Graph     GraphConfig     `toml:"graph"`
	Webhook   WebhookConfig   `toml:"webhook"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type LogConfig struct {
	Level      string `toml:"level" env:"LOG_LEVEL"`
	Format     string `toml:"format" env:"LOG_FORMAT"`
	File       string `toml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type ServerConfig struct {
	Addr string `toml:"addr" env:"HTTP_ADDR"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	URL      string `toml:"url" env:"DATABASE_URL"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password" env:"PGPASSWORD"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `toml:"auto_migrate"`
}

// DSN returns a postgres:// connection string. An explicit URL wins over the
// discrete fields.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	URL string `toml:"url" env:"REDIS_URL"`
}

// QueueConfig selects the background job backend. Backend "memory" runs jobs
// in-process; "asynq" pushes them through Redis.
type QueueConfig struct {
	Backend string `toml:"backend" env:"QUEUE_BACKEND"`
	Workers int    `toml:"workers"`
	Buffer  int    `toml:"buffer"`
	Name    string `toml:"name"`
}

type GeminiConfig struct {
	BaseURL string `toml:"base_url"`
	// APIKey is the process-wide fallback used when neither the account nor
	// the admin system settings carry a key.
	APIKey         string `toml:"api_key" env:"GEMINI_API_KEY"`
	DefaultModel   string `toml:"default_model" env:"GEMINI_MODEL"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type GraphConfig struct {
	BaseURL        string `toml:"base_url"`
	Version        string `toml:"version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type WebhookConfig struct {
	// VerifyToken is an operator-level token accepted in addition to the
	// per-page tokens stored in webhook_subscriptions.
	VerifyToken string `toml:"verify_token" env:"FB_VERIFY_TOKEN"`
	// AppSecret enables X-Hub-Signature-256 verification when set.
	AppSecret string `toml:"app_secret" env:"FB_APP_SECRET"`
	// AllowAnyVerifyToken accepts any non-empty token while no token is
	// configured anywhere.
	AllowAnyVerifyToken bool `toml:"allow_any_verify_token"`
}

type RateLimitConfig struct {
	Enabled       bool `toml:"enabled"`
	Max           int  `toml:"max"`
	WindowSeconds int  `toml:"window_seconds"`
}

func defaults() Config {
	return Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Queue: QueueConfig{
			Backend: "memory",
			Workers: DefaultQueueWorkers,
			Buffer:  DefaultQueueBuffer,
			Name:    DefaultQueueName,
		},
		Gemini: GeminiConfig{
			BaseURL:        DefaultGeminiBaseURL,
			DefaultModel:   DefaultGeminiModel,
			TimeoutSeconds: 60,
		},
		Graph: GraphConfig{
			BaseURL:        DefaultGraphBaseURL,
			Version:        DefaultGraphVersion,
			TimeoutSeconds: 15,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Max:           DefaultRateLimitMax,
			WindowSeconds: DefaultRateLimitWindow,
		},
	}
}

// Load reads the toml file at path (missing file is not an error), then lets
// environment variables override individual fields. A .env file in the
// working directory is loaded first without clobbering the real environment.
func Load(path string) (Config, error) {
	cfg := defaults()

	if err := godotenv.Load(DefaultEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", DefaultEnvPath, err)
	}

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}
