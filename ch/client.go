package ch

import (
	"context"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dailyyoga/coinframe/logger"
	"go.uber.org/zap"
)

type defaultClient struct {
	cfg    *Config
	logger logger.Logger
	conn   driver.Conn

	mu     sync.RWMutex
	writer *defaultWriter
	closed bool
}

// NewClient connects to ClickHouse and pings it within DialTimeout
func NewClient(cfg *Config, log logger.Logger) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(cfg.options())
	if err != nil {
		return nil, ErrConnection(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, ErrConnection(err)
	}

	log.Info("clickhouse connected",
		zap.Strings("hosts", cfg.Hosts),
		zap.String("database", cfg.Database),
	)
	return &defaultClient{cfg: cfg, logger: log, conn: conn}, nil
}

// Writer returns the client's batching writer, creating it on first use.
// The caller starts it; Close stops it.
func (c *defaultClient) Writer() (Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrWriterClosed
	}
	if c.cfg.WriterConfig == nil {
		return nil, ErrWriterDisabled
	}
	if c.writer == nil {
		c.writer = newWriter(connInserter(c.conn), c.cfg.WriterConfig, c.logger)
	}
	return c.writer, nil
}

func (c *defaultClient) Exec(ctx context.Context, query string, args ...any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	return c.conn.Exec(ctx, query, args...)
}

// Close flushes the writer over the still open connection, then closes it
func (c *defaultClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.writer != nil {
		if err := c.writer.Close(); err != nil {
			c.logger.Error("clickhouse writer close failed", zap.Error(err))
		}
	}
	if err := c.conn.Close(); err != nil {
		return ErrConnection(err)
	}
	c.logger.Info("clickhouse connection closed")
	return nil
}

// connInserter inserts rows with one prepared batch per call
func connInserter(conn driver.Conn) insertFunc {
	return func(ctx context.Context, table TableName, rows []Row) error {
		batch, err := conn.PrepareBatch(ctx, "INSERT INTO `"+string(table)+"`")
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := batch.Append(row.Values()...); err != nil {
				_ = batch.Abort()
				return err
			}
		}
		return batch.Send()
	}
}
