package temporal

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// zapLogger adapts a zap logger to the SDK's key-value logger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger routes SDK, workflow and activity logs through logger
func NewLogger(logger *zap.Logger) log.Logger {
	return &zapLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *zapLogger) Debug(msg string, keyvals ...interface{}) {
	l.sugar.Debugw(msg, keyvals...)
}

func (l *zapLogger) Info(msg string, keyvals ...interface{}) {
	l.sugar.Infow(msg, keyvals...)
}

func (l *zapLogger) Warn(msg string, keyvals ...interface{}) {
	l.sugar.Warnw(msg, keyvals...)
}

func (l *zapLogger) Error(msg string, keyvals ...interface{}) {
	l.sugar.Errorw(msg, keyvals...)
}

// With returns a logger that always attaches keyvals
func (l *zapLogger) With(keyvals ...interface{}) log.Logger {
	return &zapLogger{sugar: l.sugar.With(keyvals...)}
}
