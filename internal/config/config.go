// Package config loads storefront settings from defaults, an optional
// storefront.yaml, STOREFRONT_* environment variables and command flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STOREFRONT_API_BASE_URL.
const EnvPrefix = "STOREFRONT"

// Config holds all storefront settings.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Log    LogConfig    `mapstructure:"log"`
	Export ExportConfig `mapstructure:"export"`
}

// APIConfig configures the catalog API client.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

// HTTPConfig configures the storefront server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig configures the optional revalidation store.
// An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Options returns go-redis options for the configured server.
func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ExportConfig configures the catalog export command.
type ExportConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// FlagKeys maps command line flag names to config keys.
var FlagKeys = map[string]string{
	"api-url":      "api.base_url",
	"user-agent":   "api.user_agent",
	"timeout":      "api.timeout",
	"max-attempts": "api.max_attempts",
	"addr":         "http.addr",
	"redis-addr":   "redis.addr",
	"log-level":    "log.level",
	"log-pretty":   "log.pretty",
	"concurrency":  "export.concurrency",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.user_agent", "catalog-storefront/0.1.0")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.max_attempts", 1)
	v.SetDefault("api.initial_backoff", "500ms")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "45s")
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("export.concurrency", 4)
}

// Load reads the configuration. configFile may be empty, in which case
// storefront.yaml is looked up in the working directory and ./config.
// flags may be nil; flags present in FlagKeys override every other source
// when set on the command line.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL (got %q)", c.API.BaseURL)
	}
	if c.API.UserAgent == "" {
		return errors.New("api.user_agent is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0 (got %s)", c.API.Timeout)
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be >= 1 (got %d)", c.API.MaxAttempts)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Export.Concurrency < 1 {
		return fmt.Errorf("export.concurrency must be >= 1 (got %d)", c.Export.Concurrency)
	}
	return nil
}
