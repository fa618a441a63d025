package kafka

import (
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ProducerConfig is the configuration for kafka producer
type ProducerConfig struct {
	// kafka cluster brokers
	Brokers []string `mapstructure:"brokers"`

	// Topic receives payload published events
	// default: "coinframe.payload.published"
	Topic string `mapstructure:"topic"`

	// Optional: kafka client id, shown in broker logs and metrics
	ClientID string `mapstructure:"client_id"`

	// Acks is the number of acknowledgements the leader must receive:
	// "all" (or -1), "1" or "0"
	// default: "all"
	Acks string `mapstructure:"acks"`

	// Compression codec: none, gzip, snappy, lz4, zstd
	// default: "none"
	Compression string `mapstructure:"compression"`

	// LingerMs is how long the producer waits to batch messages
	// default: 0 (send immediately)
	LingerMs int `mapstructure:"linger_ms"`

	// BatchSize is the maximum bytes per batch
	// default: 100KB
	BatchSize int `mapstructure:"batch_size"`

	// Security protocol: "PLAINTEXT", "SASL_PLAINTEXT", "SASL_SSL"
	// only support PLAINTEXT for now
	// default: "PLAINTEXT"
	SecurityProtocol string `mapstructure:"security_protocol"`

	// Max retries for kafka producer
	// default: 3
	MaxRetries int `mapstructure:"max_retries"`

	// SkipValidation skips the cluster metadata check at construction
	SkipValidation bool `mapstructure:"skip_validation"`
}

func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Topic:            "coinframe.payload.published",
		Acks:             "all",
		Compression:      "none",
		LingerMs:         0,
		BatchSize:        100 * 1024, // 100KB
		SecurityProtocol: "PLAINTEXT",
		MaxRetries:       3,
	}
}

// MergeDefaults fills zero values with defaults
func (p *ProducerConfig) MergeDefaults() *ProducerConfig {
	d := DefaultProducerConfig()
	if p.Topic == "" {
		p.Topic = d.Topic
	}
	if p.Acks == "" {
		p.Acks = d.Acks
	}
	if p.Compression == "" {
		p.Compression = d.Compression
	}
	if p.BatchSize == 0 {
		p.BatchSize = d.BatchSize
	}
	if p.SecurityProtocol == "" {
		p.SecurityProtocol = d.SecurityProtocol
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = d.MaxRetries
	}
	return p
}

func (p *ProducerConfig) Validate() error {
	if len(p.Brokers) == 0 {
		return ErrInvalidConfig("brokers are required")
	}
	if p.Topic == "" {
		return ErrInvalidConfig("topic is required")
	}
	switch strings.ToLower(p.Acks) {
	case "all", "-1", "0", "1":
	default:
		return ErrInvalidConfig("acks must be all, -1, 0 or 1")
	}
	switch strings.ToLower(p.Compression) {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return ErrInvalidConfig("compression must be none, gzip, snappy, lz4 or zstd")
	}
	if p.LingerMs < 0 || p.BatchSize < 0 || p.MaxRetries < 0 {
		return ErrInvalidConfig("linger_ms, batch_size and max_retries must be non-negative")
	}
	return nil
}

func (p *ProducerConfig) BuildConfigMap() *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(p.Brokers, ","),
		"compression.type":  strings.ToLower(p.Compression),
		"acks":              strings.ToLower(p.Acks),
		"linger.ms":         p.LingerMs,
		"batch.size":        p.BatchSize,
		"retries":           p.MaxRetries,
		"security.protocol": p.SecurityProtocol,
	}

	if p.ClientID != "" {
		_ = configMap.SetKey("client.id", p.ClientID)
	}

	return configMap
}
