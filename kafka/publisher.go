package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventType header value of every published message
const EventType = "payload.published"

// PayloadPublished announces a freshly built payload. The image itself is
// not included; consumers read it from the cache or the HTTP API.
type PayloadPublished struct {
	CacheKey    string              `json:"cache_key"`
	Selector    payload.Selector    `json:"selector"`
	Coin        payload.Coin        `json:"coin"`
	PriceUSD    decimal.NullDecimal `json:"price_usd"`
	ChartPoints int                 `json:"chart_points"`
	ImageBytes  int                 `json:"image_bytes"`
	GeneratedAt time.Time           `json:"generated_at"`
	RefreshMS   int64               `json:"refresh_ms"`
}

// Publisher sends a PayloadPublished message for every refreshed outcome
type Publisher struct {
	logger   logger.Logger
	producer Producer
	topic    string
}

// NewPublisher creates a Publisher for topic
func NewPublisher(log logger.Logger, producer Producer, topic string) *Publisher {
	return &Publisher{logger: log, producer: producer, topic: topic}
}

// Observe implements refresh.Observer
func (p *Publisher) Observe(ctx context.Context, ev refresh.Event) {
	if ev.Outcome != refresh.OutcomeRefreshed || ev.Payload == nil {
		return
	}
	msg, err := p.message(ev)
	if err != nil {
		p.logger.Error("failed to encode payload published event", zap.String("key", ev.Key), zap.Error(err))
		return
	}
	if err := p.producer.Produce(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Warn("failed to publish payload event",
			zap.String("key", ev.Key),
			zap.String("topic", p.topic),
			zap.Error(err),
		)
	}
}

func (p *Publisher) message(ev refresh.Event) (*Message, error) {
	body := PayloadPublished{
		CacheKey:    ev.Key,
		Selector:    ev.Selector,
		Coin:        ev.Payload.Subject,
		PriceUSD:    ev.Payload.Detail.PriceUSD,
		ChartPoints: len(ev.Payload.Chart.Prices),
		ImageBytes:  len(ev.Payload.Image),
		GeneratedAt: ev.Payload.GeneratedAt,
		RefreshMS:   ev.Duration.Milliseconds(),
	}
	value, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return &Message{
		Topic:     p.topic,
		Key:       []byte(ev.Payload.Subject.ID),
		Value:     value,
		Timestamp: ev.Payload.GeneratedAt,
		Headers: []Header{
			{Key: "event-type", Value: []byte(EventType)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
