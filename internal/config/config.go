package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Scylla struct {
		Hosts    []string `mapstructure:"hosts"`
		Keyspace string   `mapstructure:"keyspace"`
	} `mapstructure:"scylla"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`

	Redis struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"redis"`

	Auth struct {
		JWTSecret   string `mapstructure:"jwt_secret"`
		TokenExpiry string `mapstructure:"token_expiry"`
	} `mapstructure:"auth"`

	API struct {
		Addr    string `mapstructure:"addr"`
		BaseURL string `mapstructure:"base_url"` // download URLs are built on this
	} `mapstructure:"api"`

	Gateway struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"gateway"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CHATIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional, env vars alone are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("scylla.hosts", []string{"localhost:9042"})
	viper.SetDefault("scylla.keyspace", "chatify")
	viper.SetDefault("kafka.brokers", []string{"localhost:19092"})
	viper.SetDefault("kafka.topic", "chatify-mutations")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("auth.jwt_secret", "dev_secret_change_me")
	viper.SetDefault("auth.token_expiry", "24h")
	viper.SetDefault("api.addr", ":8081")
	viper.SetDefault("api.base_url", "http://localhost:8081")
	viper.SetDefault("gateway.addr", ":8080")
}
