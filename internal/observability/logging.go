// Package observability provides structured logging for the haunted house.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/hauntedhouse/internal/config"
)

// LoggerName names the root logger. Component loggers hang off it.
const LoggerName = "hauntedhouse"

// NewLogger creates a structured logger from the given logging configuration.
// Output goes to stderr, or to cfg.File when set so the console presenter
// keeps the terminal to itself.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	encoder, err := newEncoder(cfg.Format, cfg.File == "")
	if err != nil {
		return nil, err
	}

	output := "stderr"
	if cfg.File != "" {
		output = cfg.File
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("opening log output %s: %w", output, err)
	}

	stacktraces := zapcore.ErrorLevel
	if level == zapcore.DebugLevel {
		stacktraces = zapcore.WarnLevel
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(stacktraces),
		zap.ErrorOutput(sink),
	).Named(LoggerName), nil
}

// newEncoder builds the encoder for format. Level colors are only used on a
// terminal.
func newEncoder(format string, color bool) (zapcore.Encoder, error) {
	switch format {
	case "json":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encCfg), nil
	case "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		if color {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
