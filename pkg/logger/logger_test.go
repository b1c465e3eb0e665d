package logger

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	tests := []struct {
		name  string
		scope string
	}{
		{"basic scope", "locks"},
		{"nested scope", "sync.svc"},
		{"empty scope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Scope(tt.scope)
			assert.Equal(t, "scope", attr.Key)
			assert.Equal(t, tt.scope, attr.Value.String())
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"simple error", errors.New("graph write failed")},
		{"nil error", nil},
		{"joined error", errors.Join(errors.New("outer"), errors.New("inner"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Error(tt.err)
			assert.Equal(t, "error", attr.Key)
			assert.Equal(t, tt.err, attr.Value.Any())
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		enabled  slog.Level
		disabled slog.Level
	}{
		{"default is info", "", slog.LevelInfo, slog.LevelDebug},
		{"debug", "debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"warn", "warn", slog.LevelWarn, slog.LevelInfo},
		{"warning alias", "warning", slog.LevelWarn, slog.LevelInfo},
		{"error", "error", slog.LevelError, slog.LevelWarn},
		{"case insensitive", "DEBUG", slog.LevelDebug, slog.LevelDebug - 4},
		{"invalid falls back to info", "loud", slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("GO_ENV", "")

			log := NewLogger()
			require.NotNil(t, log)
			assert.True(t, log.Enabled(nil, tt.enabled))
			assert.False(t, log.Enabled(nil, tt.disabled))
		})
	}
}

func TestNewLogger_ProductionJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GO_ENV", "production")

	log := NewLogger()
	require.NotNil(t, log)
	assert.True(t, log.Enabled(nil, slog.LevelInfo))
}
