package ch

import (
	"context"
	"fmt"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/refresh"
	"go.uber.org/zap"
)

const eventTableDDL = "CREATE TABLE IF NOT EXISTS `%s` (" +
	"event_time DateTime64(3)," +
	"cache_key String," +
	"mode LowCardinality(String)," +
	"subject String," +
	"coin_id String," +
	"outcome LowCardinality(String)," +
	"attempts UInt16," +
	"duration_ms UInt32," +
	"error String," +
	"generated_at DateTime64(3)" +
	") ENGINE = MergeTree ORDER BY (outcome, event_time)"

// EventRow is one coordinator call
type EventRow struct {
	Table       TableName
	EventTime   time.Time
	CacheKey    string
	Mode        string
	Subject     string
	CoinID      string
	Outcome     string
	Attempts    uint16
	DurationMS  uint32
	Error       string
	GeneratedAt time.Time
}

func (r *EventRow) TableName() TableName { return r.Table }

func (r *EventRow) Values() []any {
	return []any{
		r.EventTime,
		r.CacheKey,
		r.Mode,
		r.Subject,
		r.CoinID,
		r.Outcome,
		r.Attempts,
		r.DurationMS,
		r.Error,
		r.GeneratedAt,
	}
}

// NewEventRow converts a coordinator event into a row of table
func NewEventRow(table TableName, ev refresh.Event) *EventRow {
	row := &EventRow{
		Table:      table,
		EventTime:  ev.At.UTC(),
		CacheKey:   ev.Key,
		Mode:       string(ev.Selector.Mode),
		Subject:    ev.Selector.CoinID + ev.Selector.Category,
		Outcome:    string(ev.Outcome),
		Attempts:   uint16(min(ev.Attempts, 1<<16-1)),
		DurationMS: uint32(ev.Duration.Milliseconds()),
	}
	if ev.Err != nil {
		row.Error = ev.Err.Error()
	}
	if ev.Payload != nil {
		row.CoinID = ev.Payload.Subject.ID
		row.GeneratedAt = ev.Payload.GeneratedAt
	}
	return row
}

// EventSink records every coordinator call in ClickHouse
type EventSink struct {
	logger logger.Logger
	writer Writer
	table  TableName
}

// NewEventSink creates a sink writing to table through writer
func NewEventSink(log logger.Logger, writer Writer, table TableName) *EventSink {
	return &EventSink{logger: log, writer: writer, table: table}
}

// Observe implements refresh.Observer
func (s *EventSink) Observe(ctx context.Context, ev refresh.Event) {
	if err := s.writer.Write(context.WithoutCancel(ctx), NewEventRow(s.table, ev)); err != nil {
		s.logger.Warn("dropping refresh event",
			zap.String("key", ev.Key),
			zap.String("outcome", string(ev.Outcome)),
			zap.Error(err),
		)
	}
}

// EnsureEventTable creates the event table when it does not exist
func EnsureEventTable(ctx context.Context, client Client, table TableName) error {
	if err := client.Exec(ctx, fmt.Sprintf(eventTableDDL, table)); err != nil {
		return ErrMigrate(table, err)
	}
	return nil
}
