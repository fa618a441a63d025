package routine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunner_GoNamed(t *testing.T) {
	runner := New(zap.NewNop())

	var counter atomic.Int32
	for i := 0; i < 50; i++ {
		runner.GoNamed("count", func() { counter.Add(1) })
	}
	runner.Wait()

	assert.EqualValues(t, 50, counter.Load())
}

func TestRunner_PanicIsRecoveredAndLogged(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	runner := New(zap.New(core))

	var after atomic.Bool
	runner.GoNamed("boom", func() { panic("test panic") })
	runner.GoNamed("after", func() { after.Store(true) })
	runner.Wait()

	assert.True(t, after.Load())
	entries := recorded.FilterMessage("goroutine panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["routine"])
	assert.Contains(t, entries[0].ContextMap()["error"], "test panic")
}

func TestRunner_GoNamedWithContext(t *testing.T) {
	runner := New(zap.NewNop())

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")

	var got atomic.Value
	runner.GoNamedWithContext(ctx, "ctx", func(ctx context.Context) {
		got.Store(ctx.Value(ctxKey{}))
	})
	runner.Wait()

	assert.Equal(t, "value", got.Load())
}

func TestGoNamed_Standalone_WithPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	GoNamed(zap.NewNop(), "standalone", func() {
		defer wg.Done()
		panic("standalone panic")
	})
	wg.Wait()
}

func TestGoNamedWithContext_Standalone(t *testing.T) {
	var wg sync.WaitGroup
	var executed atomic.Bool
	wg.Add(1)
	GoNamedWithContext(context.Background(), zap.NewNop(), "standalone-ctx", func(ctx context.Context) {
		defer wg.Done()
		executed.Store(ctx != nil)
	})
	wg.Wait()

	assert.True(t, executed.Load())
}

func TestErrPanic(t *testing.T) {
	err := ErrPanic("archive-snapshot", "boom")
	assert.ErrorIs(t, err, ErrPanicked)
	assert.EqualError(t, err, "routine: goroutine panicked: archive-snapshot: boom")
	assert.EqualError(t, ErrPanic("", 42), "routine: goroutine panicked: unnamed: 42")
}
