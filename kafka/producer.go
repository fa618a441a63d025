package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/coinframe/logger"
	"go.uber.org/zap"
)

const (
	createAttempts = 3
	createBackoff  = 2 * time.Second
	metadataWait   = 10 * time.Second
	flushWait      = 10 * time.Second
)

type defaultProducer struct {
	logger logger.Logger

	p *kafka.Producer

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewProducer creates a new kafka producer
func NewProducer(log logger.Logger, config *ProducerConfig) (Producer, error) {
	if config == nil {
		config = DefaultProducerConfig()
	} else {
		config = config.MergeDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !config.SkipValidation {
		if err := checkCluster(log, config.Brokers); err != nil {
			return nil, err
		}
	}

	producer, err := withAttempts(log, "producer", func() (*kafka.Producer, error) {
		return kafka.NewProducer(config.BuildConfigMap())
	})
	if err != nil {
		return nil, ErrConnection(err)
	}

	kp := &defaultProducer{
		p:      producer,
		logger: log,
		done:   make(chan struct{}),
	}

	kp.wg.Add(1)
	go kp.handleDeliveryReports()

	log.Info("kafka producer initialized",
		zap.Strings("brokers", config.Brokers),
		zap.String("topic", config.Topic),
	)
	return kp, nil
}

// checkCluster fetches cluster metadata once to fail fast on bad brokers
func checkCluster(log logger.Logger, brokers []string) error {
	admin, err := withAttempts(log, "admin client", func() (*kafka.AdminClient, error) {
		return kafka.NewAdminClient(&kafka.ConfigMap{
			"bootstrap.servers":  strings.Join(brokers, ","),
			"request.timeout.ms": int(metadataWait.Milliseconds()),
		})
	})
	if err != nil {
		return ErrConnection(err)
	}
	defer admin.Close()

	if _, err := admin.GetMetadata(nil, false, int(metadataWait.Milliseconds())); err != nil {
		return ErrConnection(err)
	}
	log.Info("kafka brokers connection validated", zap.Strings("brokers", brokers))
	return nil
}

func withAttempts[T any](log logger.Logger, what string, create func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for i := 0; i < createAttempts; i++ {
		if v, err = create(); err == nil {
			return v, nil
		}
		if i < createAttempts-1 {
			log.Warn("failed to create kafka "+what+", retrying",
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", createAttempts),
			)
			time.Sleep(createBackoff)
		}
	}
	return v, fmt.Errorf("create %s after %d attempts: %w", what, createAttempts, err)
}

// handleDeliveryReports logs delivery results until Close
func (kp *defaultProducer) handleDeliveryReports() {
	defer kp.wg.Done()

	for {
		select {
		case <-kp.done:
			return
		case e := <-kp.p.Events():
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					kp.logger.Error("failed to deliver message",
						zap.Error(ev.TopicPartition.Error),
						zap.String("topic", *ev.TopicPartition.Topic),
						zap.ByteString("key", ev.Key),
					)
				} else {
					kp.logger.Debug("message delivered",
						zap.String("topic", *ev.TopicPartition.Topic),
						zap.Int32("partition", ev.TopicPartition.Partition),
						zap.Int64("offset", int64(ev.TopicPartition.Offset)),
					)
				}
			case kafka.Error:
				kp.logger.Error("kafka producer error",
					zap.Int("code", int(ev.Code())),
					zap.String("error", ev.String()),
				)
			default:
				kp.logger.Debug("received unknown event", zap.String("type", fmt.Sprintf("%T", ev)))
			}
		}
	}
}

// Produce enqueues msg; delivery is reported asynchronously
func (kp *defaultProducer) Produce(ctx context.Context, msg *Message) error {
	if kp.closed.Load() {
		return ErrProducerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	message, err := toKafkaMessage(msg)
	if err != nil {
		return err
	}
	if err := kp.p.Produce(message, nil); err != nil {
		return ErrProduce(msg.Topic, err)
	}
	return nil
}

func toKafkaMessage(msg *Message) (*kafka.Message, error) {
	if msg.Topic == "" {
		return nil, ErrInvalidConfig("topic is required")
	}
	if msg.Value == nil {
		return nil, ErrInvalidConfig("value is required")
	}

	topic := msg.Topic
	partition := kafka.PartitionAny
	if msg.Partition != nil {
		partition = *msg.Partition
	}
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		headers = append(headers, kafka.Header{Key: h.Key, Value: h.Value})
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: partition},
		Key:            msg.Key,
		Value:          msg.Value,
		Timestamp:      msg.Timestamp,
		Headers:        headers,
	}, nil
}

// Close flushes pending messages and closes the producer
func (kp *defaultProducer) Close() error {
	kp.closeOnce.Do(func() {
		kp.closed.Store(true)
		close(kp.done)
		kp.wg.Wait()

		if remaining := kp.p.Flush(int(flushWait.Milliseconds())); remaining > 0 {
			kp.logger.Warn("messages not delivered before shutdown", zap.Int("remaining", remaining))
		}
		kp.p.Close()
	})
	return nil
}
