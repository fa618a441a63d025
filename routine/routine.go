// Package routine runs goroutines that cannot take the process down.
//
// A panic inside a goroutine started here is recovered and logged with its
// stack. Runner additionally tracks its goroutines so owners (the snapshot
// archive, the HTTP server) can drain them on shutdown.
package routine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/dailyyoga/coinframe/logger"
	"go.uber.org/zap"
)

// Runner provides tracked goroutine execution with panic recovery
type Runner interface {
	// GoNamed executes fn in a new goroutine; name is used for logging
	GoNamed(name string, fn func())

	// GoNamedWithContext executes fn with ctx in a new goroutine
	GoNamedWithContext(ctx context.Context, name string, fn func(ctx context.Context))

	// Wait blocks until every goroutine started by this runner returned
	Wait()
}

type defaultRunner struct {
	log logger.Logger
	wg  sync.WaitGroup
}

// New creates a new Runner with the given logger
func New(log logger.Logger) Runner {
	return &defaultRunner{log: log}
}

func (r *defaultRunner) GoNamed(name string, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer recoverWithLog(r.log, name)
		fn()
	}()
}

func (r *defaultRunner) GoNamedWithContext(ctx context.Context, name string, fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer recoverWithLog(r.log, name)
		fn(ctx)
	}()
}

func (r *defaultRunner) Wait() {
	r.wg.Wait()
}

// GoNamed runs fn in an untracked goroutine with panic recovery
func GoNamed(log logger.Logger, name string, fn func()) {
	go func() {
		defer recoverWithLog(log, name)
		fn()
	}()
}

// GoNamedWithContext runs fn with ctx in an untracked goroutine with panic recovery
func GoNamedWithContext(ctx context.Context, log logger.Logger, name string, fn func(ctx context.Context)) {
	go func() {
		defer recoverWithLog(log, name)
		fn(ctx)
	}()
}

func recoverWithLog(log logger.Logger, name string) {
	rec := recover()
	if rec == nil {
		return
	}
	log.Error("goroutine panicked",
		zap.String("routine", name),
		zap.Error(ErrPanic(name, rec)),
		zap.ByteString("stack", debug.Stack()),
	)
}
