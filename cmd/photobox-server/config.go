package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const configFileName = "photobox-server"

// Config is the server's own configuration; the pipeline lives in Pipeline.
type Config struct {
	Address  string `mapstructure:"address"`
	Pipeline string `mapstructure:"pipeline"`
	LogLevel string `mapstructure:"log-level"`
}

// field: default value
var defaults = map[string]any{
	"address":   ":8080",
	"pipeline":  "photobox.yaml",
	"log-level": "info",
}

// InitConfig reads photobox-server.yaml if present and PHOTOBOX_* environment
// variables. Environment variables take precedence over the file.
func InitConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("photobox")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, def := range defaults {
		v.SetDefault(key, def)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if cfg.Pipeline == "" {
		return nil, fmt.Errorf("missing required config field: pipeline")
	}
	return &cfg, nil
}
