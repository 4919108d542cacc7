// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger at level writing to stderr and, when file is
// set, also appending to file.
func New(level, file string) (*zap.Logger, error) {
	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if file != "" {
		f, err := openFile(file)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, f)
	}
	return build(level, sinks)
}

// NewFile returns a console logger at level that only appends to file, for
// tools whose terminal output is the product.
func NewFile(level, file string) (*zap.Logger, error) {
	f, err := openFile(file)
	if err != nil {
		return nil, err
	}
	return build(level, []zapcore.WriteSyncer{f})
}

func openFile(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(f), nil
}

func build(level string, sinks []zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	enc := zapcore.NewConsoleEncoder(encCfg)

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), lvl)
	return zap.New(core), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
