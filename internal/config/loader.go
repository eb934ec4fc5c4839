package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SPLITLEDGER_HTTP_ADDR.
const EnvPrefix = "SPLITLEDGER"

var defaults = map[string]any{
	"env":                   "development",
	"http.addr":             ":8080",
	"http.shutdown_timeout": 15 * time.Second,
	"log.level":             "info",
	"log.file":              "",
	"log.max_size_mb":       100,
	"log.max_backups":       3,
	"log.max_age_days":      28,
	"database.driver":       "sqlite",
	"database.dsn":          "./data/splitledger.db",
	"redis.addr":            "",
	"redis.password":        "",
	"redis.db":              0,
	"redis.ttl":             time.Minute,
	"amqp.url":              "",
	"amqp.exchange":         "splitledger.events",
	"sentry.dsn":            "",
	"metrics.enabled":       true,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads .env files, ./configs/<env>.yaml when present and environment
// variables, validates the result, and returns it with the viper instance
// that produced it.
func Load() (*Config, *viper.Viper, error) {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = "development"
	}
	return LoadFile(filepath.Join("configs", env+".yaml"))
}

// LoadFile is Load with an explicit config file path. A missing file is not
// an error; defaults and environment variables still apply.
func LoadFile(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, nil, fmt.Errorf("read config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("stat config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Watch calls onChange with the reloaded configuration whenever the config
// file changes. Invalid edits are logged and ignored. Watch does nothing
// when no config file was read.
func Watch(v *viper.Viper, onChange func(*Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			slog.Warn("Ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		slog.Info("Config reloaded", "file", e.Name, "op", e.Op.String())
		onChange(cfg)
	})
	v.WatchConfig()
}
