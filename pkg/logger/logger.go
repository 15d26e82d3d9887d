package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger оборачивает zap и сохраняет привычную сигнатуру вызовов:
// Info("msg", "key", value) и Error("msg", err, "key", value).
type Logger struct {
	sugar *zap.SugaredLogger
	level zapcore.Level
}

// New создает logger с указанным уровнем ("debug", "info", "warn", "error")
// и форматом ("json" или консольный по умолчанию)
func New(level string, format ...string) *Logger {
	lvl := parseLevel(level)

	var cfg zap.Config
	if len(format) > 0 && format[0] == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}

	return &Logger{
		sugar: base.Sugar(),
		level: lvl,
	}
}

// NewNop возвращает logger, который ничего не пишет (для тестов)
func NewNop() *Logger {
	return &Logger{
		sugar: zap.NewNop().Sugar(),
		level: zapcore.FatalLevel,
	}
}

// FromZap оборачивает готовый *zap.Logger (например, zaptest.NewLogger)
func FromZap(l *zap.Logger) *Logger {
	return &Logger{
		sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar(),
		level: zapcore.DebugLevel,
	}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, args...)
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.sugar.Errorw(msg, args...)
}

// With возвращает дочерний logger с постоянными полями
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		sugar: l.sugar.With(args...),
		level: l.level,
	}
}

// Enabled сообщает, пишется ли указанный уровень
func (l *Logger) Enabled(level string) bool {
	return parseLevel(level) >= l.level
}

// Sync сбрасывает буферы zap (вызывать при остановке)
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
