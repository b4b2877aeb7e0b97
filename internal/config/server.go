package config

import (
	"errors"
	"fmt"
	"time"
)

const serverEnvPrefix = "FITSYNC_SERVER"

// ServerConfig конфигурация fitsync-server
type ServerConfig struct {
	Env       string        `mapstructure:"env" yaml:"env"`
	Address   string        `mapstructure:"address" yaml:"address"`
	DBPath    string        `mapstructure:"db_path" yaml:"db_path"`
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	// RateLimit максимальное число запросов в минуту с одного IP
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`
	// MaxBodyBytes предел размера тела PUT запроса
	MaxBodyBytes int64     `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	Log          LogConfig `mapstructure:"log" yaml:"log"`
}

// LoadServer загружает конфигурацию сервера из файла (если задан), .env и
// переменных FITSYNC_SERVER_*.
func LoadServer(path string) (*ServerConfig, error) {
	loadDotEnv()

	v := newViper(serverEnvPrefix)
	v.SetDefault("env", EnvLocal)
	v.SetDefault("address", ":8080")
	v.SetDefault("db_path", "fitsync-server.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 30*24*time.Hour)
	v.SetDefault("rate_limit", 120)
	v.SetDefault("max_body_bytes", int64(32<<20))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет конфигурацию сервера
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("address cannot be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path cannot be empty")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters (set FITSYNC_SERVER_JWT_SECRET)")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("rate_limit must be positive")
	}
	return nil
}
