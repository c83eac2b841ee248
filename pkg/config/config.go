// Package config provides configuration loading and validation utilities.
package config

import "time"

// Config is the full runtime configuration of the bot process.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Ledger    LedgerConfig    `mapstructure:"ledger" validate:"required"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// BotConfig holds Telegram connection settings.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Poll    time.Duration `mapstructure:"poll_timeout" validate:"gte=0"`
	Verbose bool          `mapstructure:"verbose"`
}

// LedgerConfig points at the spreadsheet web-app that stores records.
type LedgerConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// CatalogConfig configures the perfume name sheet.
type CatalogConfig struct {
	SheetURL string        `mapstructure:"sheet_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
	PageSize int           `mapstructure:"page_size" validate:"omitempty,min=6,max=12"`
}

// AuthConfig overrides the compiled-in operator allow-list when non-empty.
type AuthConfig struct {
	AllowedIDs []int64 `mapstructure:"allowed_ids"`
}

// RedisConfig configures the optional Redis backend used by rate limiting and idempotency.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// I18nConfig selects the message catalog language.
type I18nConfig struct {
	Lang string `mapstructure:"lang"`
}

// RateLimitConfig configures per-user update limits.
type RateLimitConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	PerUser   RateLimitRule            `mapstructure:"per_user"`
	Commands  map[string]RateLimitRule `mapstructure:"commands" validate:"dive"`
	Whitelist []int64                  `mapstructure:"whitelist"`
}

// RateLimitRule allows Limit events per Window, for example 30 per "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}
