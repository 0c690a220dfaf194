// File: internal/observability/logger.go
package observability

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/scribe/internal/config"
)

// SessionIDKey is the field every component uses to tag log lines with the
// recording session they belong to.
const SessionIDKey = "session_id"

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const colorReset = "\x1b[0m"

var ansiColors = map[string]string{
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// SessionField tags a log line with a recording session id.
func SessionField(id string) zap.Field {
	return zap.String(SessionIDKey, id)
}

// SessionLogger derives the logger a recording component uses for one session.
func SessionLogger(base *zap.Logger, component, id string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.Named(component).With(SessionField(id))
}

// ConsoleWriter returns where console log lines go for cfg.Console. Stdout is
// only handed out when asked for; by default it belongs to the script.
func ConsoleWriter(cfg config.LoggerConfig) zapcore.WriteSyncer {
	switch strings.ToLower(cfg.Console) {
	case config.ConsoleStdout:
		return zapcore.Lock(os.Stdout)
	case config.ConsoleNone:
		return zapcore.AddSync(io.Discard)
	default:
		return zapcore.Lock(os.Stderr)
	}
}

// Initialize sets up the global logger with console output to console and,
// when cfg.LogFile is set, a rotating JSON file. Only the first call counts.
func Initialize(cfg config.LoggerConfig, console zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		var cores []zapcore.Core
		if !strings.EqualFold(cfg.Console, config.ConsoleNone) {
			cores = append(cores, zapcore.NewCore(consoleEncoder(cfg), console, level))
		}
		if cfg.LogFile != "" {
			rotating := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
			cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotating), level))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), options...).Named(cfg.ServiceName)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger initializes the global logger on the console cfg selects.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, ConsoleWriter(cfg))
}

// ResetForTest clears the global logger. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

func jsonEncoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}

// consoleEncoder writes one line per entry: time, colored level, component
// path and message, then fields. Any format other than "console" gets JSON.
func consoleEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	if cfg.Format != "console" {
		return jsonEncoder()
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	ec.EncodeDuration = zapcore.StringDurationEncoder
	ec.EncodeLevel = levelColorizer(cfg.Colors)
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	ec.StacktraceKey = ""
	return zapcore.NewConsoleEncoder(ec)
}

// levelColorizer wraps each level name in the ANSI color configured for it.
// Levels with no or an unknown color are printed plain.
func levelColorizer(colors config.ColorConfig) zapcore.LevelEncoder {
	byLevel := map[zapcore.Level]string{
		zapcore.DebugLevel:  ansiColors[colors.Debug],
		zapcore.InfoLevel:   ansiColors[colors.Info],
		zapcore.WarnLevel:   ansiColors[colors.Warn],
		zapcore.ErrorLevel:  ansiColors[colors.Error],
		zapcore.DPanicLevel: ansiColors[colors.DPanic],
		zapcore.PanicLevel:  ansiColors[colors.Panic],
		zapcore.FatalLevel:  ansiColors[colors.Fatal],
	}
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name := level.CapitalString()
		if c := byLevel[level]; c != "" {
			name = c + name + colorReset
		}
		enc.AppendString(name)
	}
}

// GetLogger returns the global logger, or a development fallback when
// InitializeLogger has not run.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	l.Warn("Global logger requested before initialization; using fallback.")
	return l.Named("fallback")
}

// Sync flushes buffered log entries. Call it before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !unsyncableConsole(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}

// unsyncableConsole reports whether err only says a terminal or pipe cannot
// be fsynced.
func unsyncableConsole(err error) bool {
	return errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.ENOTTY) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EBADF)
}
