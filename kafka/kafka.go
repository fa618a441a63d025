// Package kafka publishes refresh notifications to Kafka.
package kafka

import (
	"context"
	"time"
)

// Message is one outgoing record. A nil Partition lets librdkafka's
// partitioner choose from Key.
type Message struct {
	Topic     string
	Partition *int32
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   []Header
}

// Header is a record header
type Header struct {
	Key   string
	Value []byte
}

// Header returns the value of the first header named k
func (m *Message) Header(k string) []byte {
	for _, h := range m.Headers {
		if h.Key == k {
			return h.Value
		}
	}
	return nil
}

// Producer sends messages without waiting for delivery
type Producer interface {
	Produce(ctx context.Context, msg *Message) error
	Close() error
}
