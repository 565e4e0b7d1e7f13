package logging

import "go.uber.org/zap"

// ZapLogger adapts a zap.Logger to the Logger interface used across the
// service packages.
type ZapLogger struct {
	l *zap.Logger
}

// NewZap wraps an existing zap.Logger.
func NewZap(l *zap.Logger) *ZapLogger { return &ZapLogger{l: l} }

// NewProduction builds a JSON production zap logger and wraps it.
func NewProduction() (*ZapLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{l: l}, nil
}

func zapFields(ctx Fields) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx))
	for k, v := range ctx {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

// Debug logs at debug level with structured context.
func (z *ZapLogger) Debug(msg string, ctx Fields) { z.l.Debug(msg, zapFields(ctx)...) }

// Info logs at info level with structured context.
func (z *ZapLogger) Info(msg string, ctx Fields) { z.l.Info(msg, zapFields(ctx)...) }

// Warn logs at warn level with structured context.
func (z *ZapLogger) Warn(msg string, ctx Fields) { z.l.Warn(msg, zapFields(ctx)...) }

// Error logs at error level with structured context.
func (z *ZapLogger) Error(msg string, ctx Fields) { z.l.Error(msg, zapFields(ctx)...) }

// Sync flushes buffered entries; call before process exit.
func (z *ZapLogger) Sync() error { return z.l.Sync() }

var _ Logger = (*ZapLogger)(nil)
