// Package config provides configuration loading and validation.
package config

import "time"

// Config holds runtime configuration for the ledger server.
type Config struct {
	Env      string         `mapstructure:"env" validate:"required"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// RedisConfig enables the balance cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// AMQPConfig enables expense events when URL is set.
type AMQPConfig struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Exchange string `mapstructure:"exchange" validate:"required"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN string `mapstructure:"dsn" validate:"omitempty,url"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
