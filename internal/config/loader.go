package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// GlobalConfig holds the global configuration instance
	GlobalConfig *Config
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("/etc/cardmarket")
		v.AddConfigPath("$HOME/.cardmarket")
	}

	v.SetEnvPrefix("CARDMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, fall through to defaults and env vars
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	GlobalConfig = config
	return config, nil
}

// MustLoadConfig loads configuration and panics on error
func MustLoadConfig(configPath string) *Config {
	config, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return config
}

// GetConfig returns the global configuration instance
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("Config not loaded. Call LoadConfig first.")
	}
	return GlobalConfig
}

// WatchConfig watches for configuration file changes
func WatchConfig(callback func()) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig, err := LoadConfig(viper.ConfigFileUsed())
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}
		GlobalConfig = newConfig
		if callback != nil {
			callback()
		}
	})
}

// GetEnv returns environment variable value with fallback
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
