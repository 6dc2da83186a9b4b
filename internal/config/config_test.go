package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  base_url: "http://telemetry.local:5000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://telemetry.local:5000", cfg.Telemetry.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Telemetry.SnapshotTimeout)
	assert.Equal(t, TransportSSE, cfg.Feed.Transport)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 100, cfg.Dashboard.TotalStations)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TELEMETRY_URL", "http://example.com:9000")
	path := writeConfig(t, `
telemetry:
  base_url: "${TELEMETRY_URL}"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:9000", cfg.Telemetry.BaseURL)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9090
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadKafkaTransport(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  base_url: "http://telemetry.local:5000"
feed:
  transport: kafka
  kafka:
    brokers: ["localhost:9092"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportKafka, cfg.Feed.Transport)
	assert.Equal(t, "touchpoint.events", cfg.Feed.Kafka.Topic)
	assert.Equal(t, "iotdashboard", cfg.Feed.Kafka.ConsumerGroup)
}

func TestLoadKafkaTransportRequiresBrokers(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  base_url: "http://telemetry.local:5000"
feed:
  transport: kafka
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  base_url: "http://telemetry.local:5000"
feed:
  transport: carrier-pigeon
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
