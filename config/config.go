package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Shopify     ShopifyConfig     `yaml:"shopify"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	StatusBoard StatusBoardConfig `yaml:"statusboard"`
}

type ShopifyConfig struct {
	StoreDomain string `yaml:"store_domain"`
	AccessToken string `yaml:"access_token"`
	APIVersion  string `yaml:"api_version"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	StatusChangedTopicName string `yaml:"status_changed_topic_name"`
}

type StatusBoardConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	// StoreBackend selects the record store: "redis" (default),
	// "postgres", or "memory" (local testing only, not durable).
	StoreBackend string `yaml:"store_backend"`

	// AutoCreateRecords makes reads of unknown orders answer with a fresh
	// upload_photo view instead of 404.
	AutoCreateRecords bool `yaml:"auto_create_records"`

	CompletionTag         string `yaml:"completion_tag"`
	ShopifyTimeoutSeconds int    `yaml:"shopify_timeout_seconds"`
	ListEnrichConcurrency int    `yaml:"list_enrich_concurrency"`

	// Deep-link templates per clickable step. Upload takes the project id,
	// delivery the link id, revision the link id and revision number.
	UploadURLTemplate   string `yaml:"upload_url_template"`
	DeliveryURLTemplate string `yaml:"delivery_url_template"`
	RevisionURLTemplate string `yaml:"revision_url_template"`

	SyncerHTTPAddr           string `yaml:"syncer_http_addr"`
	SyncerIntervalSeconds    int    `yaml:"syncer_interval_seconds"`
	SyncerBatchSize          int    `yaml:"syncer_batch_size"`
	SyncerConcurrency        int    `yaml:"syncer_concurrency"`
	SyncerRateLimitPerMinute int    `yaml:"syncer_rate_limit_per_minute"`
	SyncerBackoff1Seconds    int    `yaml:"syncer_backoff_1_seconds"`
	SyncerBackoff2Seconds    int    `yaml:"syncer_backoff_2_seconds"`
	SyncerBackoff3Seconds    int    `yaml:"syncer_backoff_3_seconds"`
	SyncerBackoff4Seconds    int    `yaml:"syncer_backoff_4_seconds"`
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
