package ch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/smallnest/chanx"
	"go.uber.org/zap"
)

// insertFunc sends rows of one table as a single batch
type insertFunc func(ctx context.Context, table TableName, rows []Row) error

type defaultWriter struct {
	config *WriterConfig
	logger logger.Logger
	insert insertFunc

	// channel-based batch insert
	dataChan    *chanx.UnboundedChan[Row]
	flushTicker *time.Ticker

	// control; mu orders Write sends before Close closes dataChan.In
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
}

func newWriter(insert insertFunc, config *WriterConfig, log logger.Logger) *defaultWriter {
	if config == nil {
		config = DefaultWriterConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	writer := &defaultWriter{
		config:      config,
		logger:      log,
		insert:      insert,
		dataChan:    chanx.NewUnboundedChan[Row](ctx, config.FlushSize),
		flushTicker: time.NewTicker(config.FlushInterval),
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	log.Info("clickhouse writer initialized",
		zap.Duration("flush_interval", config.FlushInterval),
		zap.Int("flush_size", config.FlushSize),
		zap.Int("min_flush_size", config.MinFlushSize),
		zap.Duration("max_wait_time", config.MaxWaitTime),
	)

	return writer
}

func (w *defaultWriter) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return nil
	}
	w.wg.Add(1)
	go w.processLoop()

	w.logger.Info("clickhouse writer started")
	return nil
}

func (w *defaultWriter) Write(ctx context.Context, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed.Load() {
		return ErrWriterClosed
	}

	for _, row := range rows {
		select {
		case w.dataChan.In <- row:
			continue
		case <-ctx.Done():
			return ctx.Err()
		default:
			w.logger.Error("channel is full, data may be lost",
				zap.Int("channel_size", w.dataChan.Len()),
				zap.Int("rows", len(rows)),
			)
			return ErrBufferFull
		}
	}
	return nil
}

func (w *defaultWriter) Close() error {
	w.mu.Lock()
	if !w.closed.CompareAndSwap(false, true) {
		w.mu.Unlock()
		return nil
	}

	w.logger.Info("clickhouse writer shutting down")

	w.flushTicker.Stop()
	close(w.done)
	close(w.dataChan.In)
	w.mu.Unlock()

	w.wg.Wait()
	w.cancel()

	w.logger.Info("clickhouse writer shutdown complete")
	return nil
}

func (w *defaultWriter) processLoop() {
	defer w.wg.Done()

	// local buffer
	buffer := make(map[TableName][]Row)
	totalRows := 0
	var firstDataTime time.Time // when the first row of the current batch arrived

	reset := func() {
		buffer = make(map[TableName][]Row)
		totalRows = 0
		firstDataTime = time.Time{}
	}

	for {
		select {
		case row, ok := <-w.dataChan.Out:
			if !ok {
				if totalRows > 0 {
					w.flush(buffer)
				}
				return
			}
			if row == nil {
				continue
			}
			if totalRows == 0 {
				firstDataTime = time.Now()
			}
			buffer[row.TableName()] = append(buffer[row.TableName()], row)
			totalRows++

			if totalRows >= w.config.FlushSize {
				w.flush(buffer)
				reset()
			}

		case <-w.flushTicker.C:
			if totalRows == 0 {
				continue
			}
			if w.shouldFlush(totalRows, firstDataTime) {
				w.flush(buffer)
				reset()
			} else {
				w.logger.Debug("skipping flush, waiting for more data",
					zap.Int("current_rows", totalRows),
					zap.Int("min_flush_size", w.config.MinFlushSize),
					zap.Duration("waited", time.Since(firstDataTime)),
				)
			}

		case <-w.done:
			w.logger.Info("process loop stopping, draining remaining data",
				zap.Int("buffered_rows", totalRows),
				zap.Int("pending_rows", w.dataChan.Len()),
			)

			// In is closed, so Out closes once the backlog is read
			for row := range w.dataChan.Out {
				if row == nil {
					continue
				}
				buffer[row.TableName()] = append(buffer[row.TableName()], row)
				totalRows++
			}
			if totalRows > 0 {
				w.flush(buffer)
			}

			w.logger.Info("process loop stopped")
			return
		}
	}
}

// shouldFlush determines whether to flush based on MinFlushSize and MaxWaitTime strategy
func (w *defaultWriter) shouldFlush(totalRows int, firstDataTime time.Time) bool {
	if w.config.MinFlushSize == 0 || totalRows >= w.config.MinFlushSize {
		return true
	}
	return w.config.MaxWaitTime > 0 && time.Since(firstDataTime) >= w.config.MaxWaitTime
}

// flush sends every buffered table as one batch
func (w *defaultWriter) flush(buffer map[TableName][]Row) {
	successRows := 0
	failedRows := 0

	for table, rows := range buffer {
		if err := w.insert(context.Background(), table, rows); err != nil {
			w.logger.Error("failed to batch insert", zap.Error(ErrInsert(table, err)))
			failedRows += len(rows)
			continue
		}
		successRows += len(rows)
	}

	w.logger.Info("flush completed",
		zap.Int("total_rows", successRows+failedRows),
		zap.Int("success_rows", successRows),
		zap.Int("failed_rows", failedRows),
	)
}
