package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
shopify:
  store_domain: "portraitlane.myshopify.com"
  access_token: "shpat_test"
  api_version: "2024-01"
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
redis:
  host: "localhost"
  port: 6379
kafka:
  host: "localhost"
  port: 9092
  status_changed_topic_name: "order.status.changed"
statusboard:
  http_addr: ":8080"
  kafka_consumer_group: "status-api"
  store_backend: "redis"
  auto_create_records: true
  completion_tag: "status-complete"
  upload_url_template: "https://tools.example.com/upload/%s"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "portraitlane.myshopify.com", cfg.Shopify.StoreDomain)
	require.Equal(t, "shpat_test", cfg.Shopify.AccessToken)
	require.Equal(t, "order.status.changed", cfg.Kafka.StatusChangedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.StatusBoard.HTTPAddr)
	require.Equal(t, "redis", cfg.StatusBoard.StoreBackend)
	require.True(t, cfg.StatusBoard.AutoCreateRecords)
	require.Equal(t, "https://tools.example.com/upload/%s", cfg.StatusBoard.UploadURLTemplate)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	require.Error(t, err)
}
