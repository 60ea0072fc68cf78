package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		slogWant slog.Level
		zapWant  zapcore.Level
		ok       bool
	}{
		{"debug", slog.LevelDebug, zapcore.DebugLevel, true},
		{"INFO", slog.LevelInfo, zapcore.InfoLevel, true},
		{"", slog.LevelInfo, zapcore.InfoLevel, true},
		{"warning", slog.LevelWarn, zapcore.WarnLevel, true},
		{"Error", slog.LevelError, zapcore.ErrorLevel, true},
		{"verbose", slog.LevelInfo, zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, z, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.slogWant, s)
			assert.Equal(t, tt.zapWant, z)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestWithPrependsAttributes(t *testing.T) {
	base := NewSlogAdapter()
	child := With(base, "stage", "basic_info")
	a, ok := child.(*slogAdapter)
	assert.True(t, ok)
	assert.Equal(t, []any{"stage", "basic_info", "vault", "0x1"}, a.merge([]any{"vault", "0x1"}))

	assert.Equal(t, Nop(), With(Nop(), "k", "v"))
}
