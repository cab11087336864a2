// Package logging wraps zap behind the small structured-logger surface the
// rest of this module depends on, with an optional rotating file sink.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logging surface every package depends on.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Sync() error
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}

// Options configures New.
type Options struct {
	// FilePath, if non-empty, rotates logs through lumberjack alongside
	// stderr output. The caller chooses the name; cmd/run-tests uses a
	// fixed th-cli.log under the configured log directory, not a name
	// derived from the run title.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Debug      bool
}

// New builds a Logger. With no FilePath set, it logs to stderr only.
func New(opts Options) (Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	// stderr is unbuffered; hiding its Sync method keeps Logger.Sync from
	// failing with EINVAL when stderr is a pipe or terminal.
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(struct{ io.Writer }{os.Stderr})),
		level,
	)
	allCores := []zapcore.Core{consoleCore}

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.TimeKey = "timestamp"
		jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(rotator), level)
		allCores = append(allCores, fileCore)
	}

	core := zapcore.NewTee(allCores...)
	logger := zap.New(core)
	return &zapLogger{sugar: logger.Sugar()}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
