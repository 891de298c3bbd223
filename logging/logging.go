// Package logging configures the process-wide zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init installs the global logger. An empty level defaults to info; when
// file is set, output goes to a size-rotated log file instead of stdout.
func Init(level, file string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
	if file != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, sink, lvl)
	zap.ReplaceGlobals(zap.New(core))
	return nil
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	_ = zap.L().Sync()
}
