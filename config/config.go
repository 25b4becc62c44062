// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"secure.paste/internal/crypto"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Secret SecretConfig `yaml:"secret"`
	Crypto CryptoConfig `yaml:"crypto"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Type string `yaml:"type"`
	// Retention removes records older than this. Zero keeps them forever.
	Retention time.Duration `yaml:"retention"`
	Redis     RedisConfig   `yaml:"redis"`
	Bolt      BoltConfig    `yaml:"bolt"`
	Badger    BadgerConfig  `yaml:"badger"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BoltConfig struct {
	Path string `yaml:"path"`
}

type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type SecretConfig struct {
	Master Secret `yaml:"master"`
}

type CryptoConfig struct {
	Cipher string `yaml:"cipher"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBolt   = "bolt"
	StoreBadger = "badger"
)

// Secret holds the master secret. It never prints its value.
type Secret string

const redacted = "[redacted]"

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return s.String()
}

func (s Secret) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Secret) Len() int {
	return len(s)
}

// Reveal returns the raw secret. Only key derivation should call it.
func (s Secret) Reveal() string {
	return string(s)
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"http://127.0.0.1:8080"},
		},
		Store: StoreConfig{
			Type: StoreMemory,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				Password: "",
				DB:       0,
			},
			Bolt: BoltConfig{
				Path: "shares.db",
			},
			Badger: BadgerConfig{
				Path: "shares.badger",
			},
		},
		Crypto: CryptoConfig{
			Cipher: string(crypto.AES256GCM),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is OK, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("STORE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Store.Retention = d
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Store.Redis.DB = db
		}
	}
	if v := os.Getenv("BOLT_PATH"); v != "" {
		c.Store.Bolt.Path = v
	}
	if v := os.Getenv("BADGER_PATH"); v != "" {
		c.Store.Badger.Path = v
	}
	if v := os.Getenv("BADGER_IN_MEMORY"); v != "" {
		c.Store.Badger.InMemory = v == "true" || v == "1"
	}

	if v := os.Getenv("SHARE_SECRET"); v != "" {
		c.Secret.Master = Secret(v)
	}
	if v := os.Getenv("CIPHER"); v != "" {
		c.Crypto.Cipher = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Store.Type {
	case StoreMemory:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required when store type is 'redis'")
		}
	case StoreBolt:
		if c.Store.Bolt.Path == "" {
			return fmt.Errorf("bolt path is required when store type is 'bolt'")
		}
	case StoreBadger:
		if c.Store.Badger.Path == "" && !c.Store.Badger.InMemory {
			return fmt.Errorf("badger path is required when store type is 'badger'")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be 'memory', 'redis', 'bolt' or 'badger')", c.Store.Type)
	}

	if c.Store.Retention < 0 {
		return fmt.Errorf("retention must not be negative")
	}

	if c.Secret.Master == "" {
		return fmt.Errorf("master secret is required (secret.master or SHARE_SECRET)")
	}

	if _, err := crypto.ParseAlgorithm(c.Crypto.Cipher); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.Log.Format)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
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
