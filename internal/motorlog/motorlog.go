// Package motorlog builds the structured logr.Logger every motor
// component logs through, backed by zap the same way the pack's
// controller-runtime-based services wire zapr.NewLogger over a configured
// zap.Logger.
package motorlog

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wayneeseguin/motor/internal/config"
)

// Log keys shared across packages, so call sites stay grep-able.
const (
	Driver  = "driver"
	Argset  = "argset"
	Trigger = "trigger"
	EID     = "eid"
)

// New builds a logr.Logger from a LoggingConfig: "text" gets a
// console-friendly development encoder, anything else gets JSON.
func New(cfg config.LoggingConfig) (logr.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.Format == "text" {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !cfg.EnableColor {
			encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	sink := zapcore.Lock(os.Stderr)
	if cfg.Output == "stdout" {
		sink = zapcore.Lock(os.Stdout)
	}

	core := zapcore.NewCore(encoder, sink, level)
	zlog := zap.New(core, zap.AddCaller())
	return zapr.NewLogger(zlog), nil
}

// Discard is a no-op logger, useful for tests that don't care about log
// output.
func Discard() logr.Logger { return logr.Discard() }
