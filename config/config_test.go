package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SHARE_SECRET", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "master secret is required")
}

func TestLoadDefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("SHARE_SECRET", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Type)
	assert.Equal(t, "aes-256-gcm", cfg.Crypto.Cipher)
	assert.Equal(t, "from-env", cfg.Secret.Master.Reveal())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("SHARE_SECRET", "")
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
  allowed_origins: ["https://paste.example.com"]
store:
  type: bolt
  retention: 72h
  bolt:
    path: /var/lib/paste/shares.db
secret:
  master: file-secret
crypto:
  cipher: xchacha20-poly1305
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, []string{"https://paste.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, StoreBolt, cfg.Store.Type)
	assert.Equal(t, 72*time.Hour, cfg.Store.Retention)
	assert.Equal(t, "/var/lib/paste/shares.db", cfg.Store.Bolt.Path)
	assert.Equal(t, "file-secret", cfg.Secret.Master.Reveal())
	assert.Equal(t, "xchacha20-poly1305", cfg.Crypto.Cipher)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "secret:\n  master: file-secret\nstore:\n  type: memory\n")
	t.Setenv("SHARE_SECRET", "env-secret")
	t.Setenv("STORE_TYPE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("STORE_RETENTION", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Secret.Master.Reveal())
	assert.Equal(t, StoreRedis, cfg.Store.Type)
	assert.Equal(t, "redis:6380", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Retention)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not, a, map")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Secret.Master = "s"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"port":        func(c *Config) { c.Server.Port = 0 },
		"store type":  func(c *Config) { c.Store.Type = "postgres" },
		"redis addr":  func(c *Config) { c.Store.Type = StoreRedis; c.Store.Redis.Addr = "" },
		"bolt path":   func(c *Config) { c.Store.Type = StoreBolt; c.Store.Bolt.Path = "" },
		"badger path": func(c *Config) { c.Store.Type = StoreBadger; c.Store.Badger.Path = "" },
		"retention":   func(c *Config) { c.Store.Retention = -time.Second },
		"secret":      func(c *Config) { c.Secret.Master = "" },
		"cipher":      func(c *Config) { c.Crypto.Cipher = "des" },
		"log level":   func(c *Config) { c.Log.Level = "chatty" },
		"log format":  func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("badger in memory needs no path", func(t *testing.T) {
		cfg := valid()
		cfg.Store.Type = StoreBadger
		cfg.Store.Badger.Path = ""
		cfg.Store.Badger.InMemory = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestSecretNeverPrints(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[redacted]", s.String())
	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%#v", s))
	assert.NotContains(t, fmt.Sprintf("%+v", SecretConfig{Master: s}), "hunter2")
	assert.Equal(t, 7, s.Len())

	out, err := yaml.Marshal(Config{Secret: SecretConfig{Master: s}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), "[redacted]")
}
