package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerName  string          `mapstructure:"server_name" yaml:"server_name"`
	Version     string          `mapstructure:"version" yaml:"version"`
	Environment string          `mapstructure:"environment" yaml:"environment"`
	Port        int             `mapstructure:"port" yaml:"port"`
	Storage     StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Postgres    PostgresConfig  `mapstructure:"postgres" yaml:"postgres"`
	Redis       RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Cache       CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Auth        AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Providers   ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Chat        ChatConfig      `mapstructure:"chat" yaml:"chat"`
}

// StorageConfig selects the conversation store backend. "memory" keeps
// everything in-process and is meant for local development and tests.
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
}

type PostgresConfig struct {
	Address  string        `mapstructure:"address" yaml:"address"`
	Port     int           `mapstructure:"port" yaml:"port"`
	User     string        `mapstructure:"user" yaml:"user"`
	Password string        `mapstructure:"password" yaml:"password"`
	DBName   string        `mapstructure:"db_name" yaml:"db_name"`
	SSLMode  string        `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxIdle  int           `mapstructure:"max_idle" yaml:"max_idle"`
	MaxOpen  int           `mapstructure:"max_open" yaml:"max_open"`
	MaxLife  time.Duration `mapstructure:"max_life" yaml:"max_life"`
}

type RedisConfig struct {
	Address      string        `mapstructure:"address" yaml:"address"`
	Port         int           `mapstructure:"port" yaml:"port"`
	Password     string        `mapstructure:"password" yaml:"password"`
	Database     int           `mapstructure:"database" yaml:"database"`
	Prefix       string        `mapstructure:"prefix" yaml:"prefix"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
}

type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	DetailTTL time.Duration `mapstructure:"detail_ttl" yaml:"detail_ttl"`
	ListTTL   time.Duration `mapstructure:"list_ttl" yaml:"list_ttl"`
}

type AuthConfig struct {
	JwtSecret       string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Expire_Access_H int    `mapstructure:"expire_access_h" yaml:"expire_access_h"`
	BcryptCost      int    `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
}

type ProvidersConfig struct {
	Default        string         `mapstructure:"default" yaml:"default"`
	AttemptTimeout time.Duration  `mapstructure:"attempt_timeout" yaml:"attempt_timeout"`
	OpenAI         ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Gemini         ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
	Claude         ProviderConfig `mapstructure:"claude" yaml:"claude"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	QPS     int  `mapstructure:"qps" yaml:"qps"`
	Burst   int  `mapstructure:"burst" yaml:"burst"`
}

type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
}

func LoadConfig() (*AppConfig, error) {
	return LoadConfigFrom("config/config.yml")
}

func LoadConfigFrom(path string) (*AppConfig, error) {
	var config AppConfig

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("storage.backend", "postgres")
	v.SetDefault("cache.detail_ttl", 5*time.Minute)
	v.SetDefault("cache.list_ttl", 15*time.Minute)
	v.SetDefault("auth.expire_access_h", 24)
	v.SetDefault("providers.default", "openai")
	v.SetDefault("providers.attempt_timeout", 10*time.Second)
	v.SetDefault("rate_limit.qps", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("chat.history_limit", 20)

	if err := v.ReadInConfig(); err != nil {
		return &config, err
	}
	if err := v.Unmarshal(&config); err != nil {
		return &config, err
	}
	if err := config.Validate(); err != nil {
		return &config, err
	}
	return &config, nil
}

// Validate catches the misconfigurations that would otherwise surface as
// confusing runtime failures.
func (c *AppConfig) Validate() error {
	if c.Auth.JwtSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required")
	}
	switch c.Storage.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Postgres.Address == "" {
		return fmt.Errorf("config: postgres.address is required for the postgres backend")
	}
	switch c.Providers.Default {
	case "openai", "gemini", "claude":
	default:
		return fmt.Errorf("config: unknown default provider %q", c.Providers.Default)
	}
	return nil
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
