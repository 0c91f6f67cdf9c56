package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base   = zap.NewNop()
	global = base.Sugar()
)

// Init initializes the logger with the console encoding.
func Init(enabled bool, levelStr, logFile string, console bool) error {
	return InitWithFormat(enabled, levelStr, logFile, console, "console")
}

// InitWithFormat initializes the logger. Entries go to logFile and, when
// console is set or no file is given, to standard error; standard output is
// reserved for converted documents.
func InitWithFormat(enabled bool, levelStr, logFile string, console bool, format string) error {
	if !enabled {
		SetLogger(zap.NewNop())
		return nil
	}

	var sinks []zapcore.WriteSyncer
	if logFile != "" {
		dir := filepath.Dir(logFile)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		sinks = append(sinks, zapcore.AddSync(f))
	}
	if console || len(sinks) == 0 {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	var enc zapcore.Encoder
	if strings.EqualFold(format, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), parseLevel(levelStr))
	SetLogger(zap.New(core))
	return nil
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	global = l.Sugar()
}

// With attaches key/value pairs to every subsequent entry.
func With(args ...interface{}) {
	global = global.With(args...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = base.Sync()
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	global.Debugf(format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	global.Infof(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	global.Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	global.Errorf(format, args...)
}
