package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the portal credentials and server settings.
type Config struct {
	URL      string `mapstructure:"url"`
	Account  string `mapstructure:"account"`
	Password string `mapstructure:"password"`

	ServerPort string `mapstructure:"server_port"`
	LogLevel   string `mapstructure:"log_level"`
	LogFile    string `mapstructure:"log_file"`
}

// Load reads configuration from the given file, with NETBRANCH_* environment
// variables taking precedence. URL, account and password are required.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	v.SetDefault("server_port", "8090")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("netbranch")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.URL == "" || config.Account == "" || config.Password == "" {
		return nil, fmt.Errorf("url, account and password must all be set")
	}

	return &config, nil
}
