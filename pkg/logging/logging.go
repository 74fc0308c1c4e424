// Package logging wires the logr facade used throughout this module to
// a zap backend, so every package logs through logr.Logger and only
// this package knows which concrete implementation backs it.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-profile logger: JSON-encoded, ISO8601
// timestamps, info level by default. verbose raises the level to debug,
// for the CLI's --verbose flag.
func New(verbose bool) (logr.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewNop returns a logger that discards everything, for callers (tests,
// library embedders) that don't want this module's logging opinions.
func NewNop() logr.Logger { return logr.Discard() }
