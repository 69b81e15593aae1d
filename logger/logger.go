// SPDX-License-Identifier: MIT

// Package logger holds the process-wide structured logger.
//
// The zero configuration is silent: Log starts as a no-op logger so that a
// library import never writes to stderr. Applications call Init once; tests
// may assign Log directly.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the sugared logger every package writes to.
var Log = zap.NewNop().Sugar()

// Init replaces Log with a development (debug=true) or production logger.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		l, err = cfg.Build()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Log = l.Named("hcov").Sugar()

	return nil
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = Log.Sync()
}
