package logging

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SlogHandler adapts the zap-backed Logger to the log/slog API so packages
// that take a *slog.Logger share the same core, level and trace decoration.
type SlogHandler struct {
	logger *Logger
	prefix string
	fields []zap.Field
}

func NewSlogHandler(logger *Logger) *SlogHandler {
	if logger == nil {
		logger = NewNop()
	}
	return &SlogHandler{logger: logger}
}

// NewSlog returns a *slog.Logger writing through the given Logger.
func NewSlog(logger *Logger) *slog.Logger {
	return slog.New(NewSlogHandler(logger))
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.Zap().Core().Enabled(zapLevel(level))
}

func (h *SlogHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make([]zap.Field, 0, len(h.fields)+record.NumAttrs()+2)
	fields = append(fields, h.fields...)
	args := make([]any, 0, record.NumAttrs()*2)
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, h.attrToField(attr))
		args = append(args, h.prefix+attr.Key, attr.Value.Resolve().Any())
		return true
	})
	fields = append(fields, traceFields(ctx)...)

	if ce := h.logger.Zap().Check(zapLevel(record.Level), record.Message); ce != nil {
		ce.Write(fields...)
		mirrorEntry(ctx, zapLevel(record.Level), record.Message, args...)
	}
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	fields := make([]zap.Field, 0, len(h.fields)+len(attrs))
	fields = append(fields, h.fields...)
	for _, attr := range attrs {
		fields = append(fields, h.attrToField(attr))
	}

	return &SlogHandler{logger: h.logger, prefix: h.prefix, fields: fields}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, prefix: h.prefix + name + ".", fields: h.fields}
}

func (h *SlogHandler) attrToField(attr slog.Attr) zap.Field {
	key := h.prefix + attr.Key
	value := attr.Value.Resolve()
	if err, ok := value.Any().(error); ok {
		return zap.NamedError(key, err)
	}
	return zap.Any(key, value.Any())
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
