package asyncrt

import "go.uber.org/zap"

// Logger is the operational logging surface Pool uses: one debug line per
// task poll (pool id and worker index), never anything about the value a
// computation produces. Defaults to a no-op logger, matching
// the source's opt-in debug instrumentation rather than logging by
// default.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// NopLogger discards everything. It is the default a Pool is built with
// when no *zap.Logger is supplied via WithLogger.
func NopLogger() Logger {
	return zap.NewNop()
}

// WrapZap adapts an existing *zap.Logger (e.g. one already configured for
// the rest of a process) to this package's Logger interface. *zap.Logger
// already satisfies Logger directly; WrapZap exists so callers don't need
// to know that.
func WrapZap(l *zap.Logger) Logger {
	return l
}
