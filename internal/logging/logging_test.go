package logging

import (
	"context"
	"testing"

	"towerdefense/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for level, want := range tests {
		for _, format := range []string{"console", "json"} {
			logger, err := New(level, format)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(want), "%s/%s", level, format)
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(want-1), "%s/%s", level, format)
			}
		}
	}
}

func TestNotifierLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewNotifier(zap.New(core))

	err := n.Notify(context.Background(), "alice", ports.Notification{
		Subject: "Gold received",
		Code:    2,
		Content: map[string]interface{}{"amount": 100},
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "alice", fields["owner"])
	assert.Equal(t, "Gold received", fields["subject"])
	assert.Equal(t, int64(2), fields["code"])
}
