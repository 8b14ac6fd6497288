package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	PriceBox PriceBoxConfig `yaml:"pricebox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	PriceCheckedTopicName string `yaml:"price_checked_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TelegramConfig struct {
	BotToken           string `yaml:"bot_token"`
	APIBaseURL         string `yaml:"api_base_url"`
	PollTimeoutSeconds int    `yaml:"poll_timeout_seconds"`
}

type PriceBoxConfig struct {
	KafkaConsumerGroup    string `yaml:"kafka_consumer_group"`
	LookupCacheTTLSeconds int    `yaml:"lookup_cache_ttl_seconds"`

	WorkerCheckIntervalSeconds int `yaml:"worker_check_interval_seconds"`
	WorkerConcurrency          int `yaml:"worker_concurrency"`
	WorkerLookupTimeoutSeconds int `yaml:"worker_lookup_timeout_seconds"`
	WorkerRateLimitPerMinute   int `yaml:"worker_rate_limit_per_minute"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`

	// Shop lookup backend: "amazon" | "fake". Пустое значение — fake.
	ShopMode      string `yaml:"shop_mode"`
	ShopUserAgent string `yaml:"shop_user_agent"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
