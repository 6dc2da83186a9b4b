package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Feed transport selection.
const (
	TransportSSE   = "sse"
	TransportKafka = "kafka"
)

type Config struct {
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Feed      FeedConfig      `yaml:"feed"`
	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// TelemetryConfig locates the remote telemetry server.
type TelemetryConfig struct {
	BaseURL         string        `yaml:"base_url"`
	SnapshotTimeout time.Duration `yaml:"snapshot_timeout"`
}

// FeedConfig selects the live-feed transport. SSE subscribes to the
// telemetry server's push stream; Kafka consumes the same events from a
// broker for deployments that publish there instead.
type FeedConfig struct {
	Transport string      `yaml:"transport"`
	Kafka     KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// DashboardConfig holds presentation constants. TotalStations is the fleet
// size shown on the summary card; it is deployment configuration, not derived
// from store contents.
type DashboardConfig struct {
	TotalStations int `yaml:"total_stations"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Telemetry.BaseURL == "" {
		return nil, fmt.Errorf("telemetry.base_url is required")
	}
	if cfg.Telemetry.SnapshotTimeout == 0 {
		cfg.Telemetry.SnapshotTimeout = 15 * time.Second
	}
	if cfg.Feed.Transport == "" {
		cfg.Feed.Transport = TransportSSE
	}
	if cfg.Feed.Transport != TransportSSE && cfg.Feed.Transport != TransportKafka {
		return nil, fmt.Errorf("feed.transport must be %q or %q, got %q",
			TransportSSE, TransportKafka, cfg.Feed.Transport)
	}
	if cfg.Feed.Transport == TransportKafka {
		if len(cfg.Feed.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("feed.kafka.brokers is required for the kafka transport")
		}
		if cfg.Feed.Kafka.Topic == "" {
			cfg.Feed.Kafka.Topic = "touchpoint.events"
		}
		if cfg.Feed.Kafka.ConsumerGroup == "" {
			cfg.Feed.Kafka.ConsumerGroup = "iotdashboard"
		}
	}
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Dashboard.TotalStations == 0 {
		cfg.Dashboard.TotalStations = 100
	}

	return &cfg, nil
}
