package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name   string `envconfig:"APP_NAME" default:"E-Manekat"`
		Port   int    `envconfig:"PORT" default:"8080"`
		Locale string `envconfig:"APP_LOCALE" default:"id"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"manekat"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Auth struct {
		JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
		TokenTTL          time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
		AdminUsername     string        `envconfig:"ADMIN_USERNAME" default:"admin"`
		AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	}

	Store struct {
		WriteTimeout time.Duration `envconfig:"STORE_WRITE_TIMEOUT" default:"10s"`
		MaxRetries   uint64        `envconfig:"STORE_MAX_RETRIES" default:"3"`
	}

	Retention struct {
		// Rejected records older than this are purged. Zero keeps them forever.
		Rejected      time.Duration `envconfig:"RETENTION_REJECTED" default:"0"`
		PurgeInterval time.Duration `envconfig:"RETENTION_PURGE_INTERVAL" default:"1h"`
	}

	Redis struct {
		Addr     string        `envconfig:"REDIS_ADDR"`
		Password string        `envconfig:"REDIS_PASSWORD"`
		DB       int           `envconfig:"REDIS_DB" default:"0"`
		TTL      time.Duration `envconfig:"REDIS_TTL" default:"1m"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
		// File receives the console's logs, which cannot share the terminal.
		File   string `envconfig:"TUI_LOG_FILE" default:"manekat-tui.log"`
	}

	Master struct {
		Categories  []string `envconfig:"MASTER_CATEGORIES" default:"Umum,Pendidikan,Kesehatan,Rumah Tangga"`
		Members     []string `envconfig:"MASTER_MEMBERS" default:"Ayah,Ibu"`
		MinTransfer int64    `envconfig:"MASTER_MIN_TRANSFER" default:"50000"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// LogLevel maps LOG_LEVEL onto a slog level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}

	return level
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Master.MinTransfer < 0 {
		return nil, fmt.Errorf("MASTER_MIN_TRANSFER must not be negative")
	}

	return &cfg, nil
}
