package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
env: dev
data_dir: /tmp/fitsync-test
log:
  level: debug
  format: json
sync:
  interval: 30s
  debounce: 500ms
backends:
  - name: drive
    kind: folder
    path: /mnt/drive/fitsync
    compression: snappy
    passphrase_env: FITSYNC_TEST_PASSPHRASE
  - kind: http
    url: https://sync.example.com
    token: abc
    timeout: 10s
  - name: archive
    kind: s3
    bucket: fitness
    disabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, "/tmp/fitsync-test/fitsync.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB, "значение по умолчанию")
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)

	require.Len(t, cfg.Backends, 3)
	assert.Equal(t, "drive", cfg.Backends[0].Name)
	assert.Equal(t, "/mnt/drive/fitsync", cfg.Backends[0].Path)
	assert.Equal(t, "http", cfg.Backends[1].Name, "имя по умолчанию совпадает с kind")
	assert.Equal(t, 10*time.Second, cfg.Backends[1].Timeout)

	enabled := cfg.EnabledBackends()
	require.Len(t, enabled, 2)
	assert.Equal(t, "drive", enabled[0].Name)
	assert.Equal(t, "http", enabled[1].Name)

	t.Setenv("FITSYNC_TEST_PASSPHRASE", "from-environment")
	assert.Equal(t, "from-environment", cfg.Backends[0].ResolvePassphrase())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "log:\n  level: info\n")

	t.Setenv("FITSYNC_LOG_LEVEL", "warn")
	t.Setenv("FITSYNC_DB_PATH", "/var/lib/fitsync/custom.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/var/lib/fitsync/custom.db", cfg.DBPath)

	// Без секции backends используется локальная папка
	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, "local-folder", cfg.Backends[0].Name)
	assert.Equal(t, "folder", cfg.Backends[0].Kind)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid default", mutate: func(c *Config) {}},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: "db_path"},
		{name: "missing kind", mutate: func(c *Config) { c.Backends[0].Kind = "" }, wantErr: "kind is required"},
		{
			name: "duplicate names",
			mutate: func(c *Config) {
				c.Backends = append(c.Backends, BackendConfig{Name: "local-folder", Kind: "memory"})
			},
			wantErr: "duplicate name",
		},
		{name: "negative interval", mutate: func(c *Config) { c.Sync.Interval = -time.Second }, wantErr: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	def := Default(dir)

	require.NoError(t, WriteDefault(path, def, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, def.DBPath, cfg.DBPath)
	assert.Equal(t, def.Sync, cfg.Sync)
	assert.Equal(t, def.Backends, cfg.Backends)

	// Повторная запись без force запрещена
	assert.Error(t, WriteDefault(path, def, false))
	assert.NoError(t, WriteDefault(path, def, true))
}

func TestLoadServer(t *testing.T) {
	t.Run("secret required", func(t *testing.T) {
		t.Setenv("FITSYNC_SERVER_JWT_SECRET", "")
		_, err := LoadServer("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("env configuration", func(t *testing.T) {
		t.Setenv("FITSYNC_SERVER_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("FITSYNC_SERVER_ADDRESS", ":9090")
		t.Setenv("FITSYNC_SERVER_TOKEN_TTL", "1h")

		cfg, err := LoadServer("")
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Address)
		assert.Equal(t, time.Hour, cfg.TokenTTL)
		assert.Equal(t, 120, cfg.RateLimit)
		assert.Equal(t, "json", cfg.Log.Format)
	})
}
