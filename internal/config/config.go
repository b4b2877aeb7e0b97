// Package config loads client and server configuration from YAML files,
// .env files and FITSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultConfigDir  = ".fitsync"
	defaultConfigName = "config"
	envPrefix         = "FITSYNC"
)

// Config конфигурация клиента
type Config struct {
	Env      string          `mapstructure:"env" yaml:"env"`
	DataDir  string          `mapstructure:"data_dir" yaml:"data_dir"`
	DBPath   string          `mapstructure:"db_path" yaml:"db_path"`
	Log      LogConfig       `mapstructure:"log" yaml:"log"`
	Sync     SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Backends []BackendConfig `mapstructure:"backends" yaml:"backends"`
}

// LogConfig настройки логирования. File пустой - логи пишутся в stderr.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // text | json
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days,omitempty"`
}

// SyncConfig настройки автоматической синхронизации (команда watch)
type SyncConfig struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	Debounce     time.Duration `mapstructure:"debounce" yaml:"debounce"`
	WatchFolders bool          `mapstructure:"watch_folders" yaml:"watch_folders"`
}

// BackendConfig описывает один remote backend. Набор используемых полей
// зависит от Kind.
type BackendConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Kind     string `mapstructure:"kind" yaml:"kind"` // folder | s3 | http | memory
	Disabled bool   `mapstructure:"disabled" yaml:"disabled,omitempty"`

	// folder
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// s3
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `mapstructure:"use_path_style" yaml:"use_path_style,omitempty"`

	// http
	URL     string        `mapstructure:"url" yaml:"url,omitempty"`
	Token   string        `mapstructure:"token" yaml:"token,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// blob codec (folder, s3)
	Compression   string `mapstructure:"compression" yaml:"compression,omitempty"` // none | snappy
	Passphrase    string `mapstructure:"passphrase" yaml:"passphrase,omitempty"`
	PassphraseEnv string `mapstructure:"passphrase_env" yaml:"passphrase_env,omitempty"`
}

// ResolvePassphrase возвращает пароль шифрования: явно заданный или из
// переменной окружения PassphraseEnv.
func (b BackendConfig) ResolvePassphrase() string {
	if b.Passphrase != "" {
		return b.Passphrase
	}
	if b.PassphraseEnv != "" {
		return os.Getenv(b.PassphraseEnv)
	}
	return ""
}

// Default возвращает конфигурацию клиента по умолчанию с каталогом dataDir
func Default(dataDir string) *Config {
	return &Config{
		Env:     EnvLocal,
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, "fitsync.db"),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Sync: SyncConfig{
			Interval:     5 * time.Minute,
			Debounce:     2 * time.Second,
			WatchFolders: true,
		},
		Backends: []BackendConfig{
			{
				Name:        "local-folder",
				Kind:        "folder",
				Path:        filepath.Join(dataDir, "remote"),
				Compression: "snappy",
			},
		},
	}
}

// DefaultDataDir возвращает ~/.fitsync
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, defaultConfigDir)
}

// Load загружает конфигурацию клиента. path пустой - файл config.yaml ищется
// в ~/.fitsync и в текущем каталоге; отсутствие файла не ошибка.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := newViper(envPrefix)
	defaults := Default(DefaultDataDir())
	v.SetDefault("env", defaults.Env)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("sync.interval", defaults.Sync.Interval)
	v.SetDefault("sync.debounce", defaults.Sync.Debounce)
	v.SetDefault("sync.watch_folders", defaults.Sync.WatchFolders)
	v.SetDefault("db_path", "")

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "fitsync.db")
	}
	// Без секции backends работаем с локальной папкой в data_dir
	if !v.IsSet("backends") {
		cfg.Backends = Default(cfg.DataDir).Backends
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет конфигурацию клиента
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path cannot be empty")
	}
	if c.Sync.Interval < 0 || c.Sync.Debounce < 0 {
		return errors.New("sync intervals cannot be negative")
	}

	seen := make(map[string]struct{}, len(c.Backends))
	for i := range c.Backends {
		b := &c.Backends[i]
		if b.Kind == "" {
			return fmt.Errorf("backend %d: kind is required", i)
		}
		if b.Name == "" {
			b.Name = b.Kind
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("backend %d: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	return nil
}

// EnabledBackends возвращает backends без флага disabled в порядке объявления
func (c *Config) EnabledBackends() []BackendConfig {
	out := make([]BackendConfig, 0, len(c.Backends))
	for _, b := range c.Backends {
		if !b.Disabled {
			out = append(out, b)
		}
	}
	return out
}

func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(DefaultDataDir())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Конфиг не найден, используем значения по умолчанию
	}
	return nil
}

// loadDotEnv загружает .env из текущего каталога, если он есть.
// Уже заданные переменные окружения не перезаписываются.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}
