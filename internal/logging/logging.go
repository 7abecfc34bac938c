// Package logging builds the zap loggers used outside the Nakama runtime.
package logging

import (
	"context"

	"towerdefense/internal/ports"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger. format is "json" or "console"; unknown levels fall
// back to info.
func New(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}

// Notifier implements ports.NotifierPort by logging each notification.
type Notifier struct {
	logger *zap.Logger
}

// NewNotifier wraps logger.
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Notify logs the notification at info level.
func (n *Notifier) Notify(ctx context.Context, ownerID string, note ports.Notification) error {
	n.logger.Info("notification",
		zap.String("owner", ownerID),
		zap.String("subject", note.Subject),
		zap.Int("code", note.Code),
		zap.Any("content", note.Content),
	)
	return nil
}

var _ ports.NotifierPort = (*Notifier)(nil)
