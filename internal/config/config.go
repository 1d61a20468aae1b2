// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	DBURL         string `mapstructure:"DB_URL"`
	GithubToken   string `mapstructure:"GITHUB_TOKEN"`
	UsersPageSize int    `mapstructure:"USERS_PAGE_SIZE"`
	ReposPageSize int    `mapstructure:"REPOS_PAGE_SIZE"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("USERS_PAGE_SIZE", 50)
	viper.SetDefault("REPOS_PAGE_SIZE", 30)
	viper.SetDefault("HTTP_ADDR", ":8080")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}

	return &cfg, nil
}
