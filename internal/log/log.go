package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the global sugared logger used throughout onlyonce. It is a no-op
// logger until InitWithConfig runs, so library code may log unconditionally.
var L = zap.NewNop().Sugar()

var initialized bool

// Initialized reports whether L has been configured by InitWithWriter.
func Initialized() bool { return initialized }

// InitWithConfig initializes the zap logger on stderr.
// level: debug|info|warn|error
// format: json|console
func InitWithConfig(level, format string) error {
	return InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter is InitWithConfig with an explicit destination.
func InitWithWriter(level, format string, w io.Writer) error {
	var lvl zapcore.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "", "info":
		lvl = zapcore.InfoLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	L = zap.New(core, zap.AddCaller()).Sugar()
	initialized = true
	return nil
}

// Sync flushes buffered logs.
func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
