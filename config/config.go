package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// AppConfig holds the application-level configuration
type AppConfig struct {
	BufferSize    int    `mapstructure:"buffer_size"`
	ReadBlockSize int    `mapstructure:"read_block_size"`
	SettleDelayMS int    `mapstructure:"settle_delay_ms"`
	StoragePath   string `mapstructure:"storage_path"`
	Debug         bool   `mapstructure:"debug"`
}

var Config *AppConfig

// LoadConfig reads config.yaml from path; environment variables and
// defaults fill the gaps. A missing config file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	viper.SetDefault("buffer_size", 8192)
	viper.SetDefault("read_block_size", 64*1024)
	viper.SetDefault("settle_delay_ms", 0)
	viper.SetDefault("storage_path", "./data")
	viper.SetDefault("debug", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var appConfig AppConfig
	if err := viper.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	Config = &appConfig
	return Config, nil
}
