package cron

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"go.uber.org/zap"
)

// Middleware decorates a Task
type Middleware func(Task) Task

// TaskFunc returns a Task named name that runs fn
func TaskFunc(name string, fn func(ctx context.Context) error) Task {
	return &funcTask{name: name, fn: fn}
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t *funcTask) Name() string                  { return t.name }
func (t *funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// wrap applies mws so the first one is outermost
func wrap(t Task, mws ...Middleware) Task {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i](t)
	}
	return t
}

// Recover converts a panic in the task into an ErrTaskPanic error
func Recover(log logger.Logger) Middleware {
	return func(next Task) Task {
		return TaskFunc(next.Name(), func(ctx context.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error("task panicked",
					zap.String("task", next.Name()),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = fmt.Errorf("%w: %s: %v", ErrTaskPanic, next.Name(), r)
			}()
			return next.Run(ctx)
		})
	}
}

// Timing logs the duration of every run. Failures log at error level,
// successes at debug since the warmer fires every few seconds.
func Timing(log logger.Logger) Middleware {
	return func(next Task) Task {
		return TaskFunc(next.Name(), func(ctx context.Context) error {
			start := time.Now()
			err := next.Run(ctx)

			fields := []zap.Field{
				zap.String("task", next.Name()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				log.Error("task failed", append(fields, zap.Error(err))...)
				return err
			}
			log.Debug("task completed", fields...)
			return nil
		})
	}
}
