package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilConfig(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, l)
	l.Info("test")
}

func TestNew_PartialConfigMergesDefaults(t *testing.T) {
	cfg := &Config{Level: "DEBUG"}
	l, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.Equal(t, "coinframe", cfg.Name)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.Equal(t, []string{"stderr"}, cfg.ErrorOutputPaths)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"console", &Config{Level: "warn", Encoding: "console"}, false},
		{"invalid level", &Config{Level: "verbose", Encoding: "json"}, true},
		{"invalid encoding", &Config{Level: "info", Encoding: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_InvalidEncoding(t *testing.T) {
	_, err := New(&Config{Level: "info", Encoding: "invalid"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("discarded")
	assert.NoError(t, l.Sync())
}
