package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  int      `mapstructure:"port"`
	DatabaseDriver        string   `mapstructure:"database_driver"` // sqlite | postgres
	DatabasePath          string   `mapstructure:"database_path"`   // sqlite only
	DatabaseURL           string   `mapstructure:"database_url"`    // postgres only
	LogLevel              string   `mapstructure:"log_level"`
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	PermissionCacheSize   int      `mapstructure:"permission_cache_size"`    // entries; 0 = default
	PermissionCacheTTLSec int      `mapstructure:"permission_cache_ttl_sec"` // backstop expiry; 0 = no expiry
	RequestTimeoutSec     int      `mapstructure:"request_timeout_sec"`      // HTTP read/write; 0 = server default
	ShutdownTimeoutSec    int      `mapstructure:"shutdown_timeout_sec"`     // graceful shutdown wait
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/quickboard/")
	viper.AddConfigPath("$HOME/.quickboard")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_path", "./quickboard.db")
	viper.SetDefault("database_url", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("permission_cache_size", 4096)
	viper.SetDefault("permission_cache_ttl_sec", 60)
	viper.SetDefault("request_timeout_sec", 15)
	viper.SetDefault("shutdown_timeout_sec", 10)

	// Environment variables
	viper.SetEnvPrefix("QUICKBOARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, fmt.Errorf("unknown database_driver %q", cfg.DatabaseDriver)
	}

	return &cfg, nil
}
