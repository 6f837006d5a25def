package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type GeneratorConfig struct {
	BaseURL                  string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey                   string `mapstructure:"api_key"`
	Model                    string `mapstructure:"model"`
	RetryAttempts            uint   `mapstructure:"retry_attempts"`
	PollIntervalMilliseconds int    `mapstructure:"poll_interval_milliseconds" validate:"gt=0"`
	PollTimeoutSeconds       int    `mapstructure:"poll_timeout_seconds" validate:"gt=0"`
}

func (c GeneratorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMilliseconds) * time.Millisecond
}

func (c GeneratorConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

type CacheConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=badger mysql"`
	Directory  string `mapstructure:"directory"`
	TTLHours   int    `mapstructure:"ttl_hours" validate:"gte=0"`
	SyncWrites bool   `mapstructure:"sync_writes"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type DatasetConfig struct {
	Directory string `mapstructure:"directory"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lexigen")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("generator.model", "lexigen-standard")
	v.SetDefault("generator.retry_attempts", 2)
	v.SetDefault("generator.poll_interval_milliseconds", 500)
	v.SetDefault("generator.poll_timeout_seconds", 60)
	v.SetDefault("cache.backend", "badger")
	v.SetDefault("cache.directory", filepath.Join("cache", "entries"))
	v.SetDefault("cache.ttl_hours", 24*7)
	v.SetDefault("cache.sync_writes", false)
	v.SetDefault("dataset.directory", "datasets")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "lexigen")
	v.SetDefault("database.username", "user")

	// Bind generator credentials to environment variables only (not from config file)
	if err := v.BindEnv("generator.base_url", "GENERATOR_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind GENERATOR_BASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("generator.api_key", "GENERATOR_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GENERATOR_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("generator.model", "GENERATOR_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind GENERATOR_MODEL environment variable: %w", err)
	}

	// Bind database password to environment variable
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
