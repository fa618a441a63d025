package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetGlobal() {
	globalMu.Lock()
	globalLogger = nil
	globalMu.Unlock()
}

func TestGlobalLogger_DefaultInitialization(t *testing.T) {
	resetGlobal()

	Info("test message", zap.String("key", "value"))

	first := GetGlobalLogger()
	require.NotNil(t, first)
	assert.Same(t, first, GetGlobalLogger())
}

func TestGlobalLogger_SetGlobalLogger(t *testing.T) {
	resetGlobal()
	core, recorded := observer.New(zapcore.DebugLevel)
	SetGlobalLogger(zap.New(core, zap.AddCallerSkip(1)))

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message", zap.String("key", "value"))

	entries := recorded.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "error message", entries[3].Message)
	assert.Equal(t, "value", entries[3].ContextMap()["key"])
}

func TestNew_SetsGlobalLogger(t *testing.T) {
	resetGlobal()

	_, err := New(&Config{Level: "debug", Encoding: "json"})
	require.NoError(t, err)

	globalMu.RLock()
	defer globalMu.RUnlock()
	assert.NotNil(t, globalLogger)
}

func TestGlobalLogger_ConcurrentAccess(t *testing.T) {
	resetGlobal()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			Info("concurrent message", zap.Int("goroutine", id))
		}(i)
	}
	wg.Wait()

	assert.NotNil(t, GetGlobalLogger())
}
