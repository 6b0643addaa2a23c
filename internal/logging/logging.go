// Package logging builds the zap logger shared by the client and its store.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fenggwsx/StartupMatch/internal/config"
)

// Logger couples a zap logger with the level that controls it, so the level
// can follow configuration reloads.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// New creates a logger writing to cfg.Log.File. Production builds emit JSON,
// development builds a console format.
func New(cfg config.Config) (*Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
		zc.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{cfg.Log.File}
	zc.ErrorOutputPaths = []string{cfg.Log.File}

	logger, err := zc.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: logger, level: level}, nil
}

// SetLevel changes the minimum enabled level. Unknown names are rejected.
func (l *Logger) SetLevel(name string) error {
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}
	if l.level.Level() != parsed {
		l.level.SetLevel(parsed)
		l.Info("log level changed", zap.String("level", parsed.String()))
	}
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}
