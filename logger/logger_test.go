// SPDX-License-Identifier: MIT
package logger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/hcov/logger"
)

func TestLog_DefaultIsSilent(t *testing.T) {
	require.False(t, logger.Log.Desugar().Core().Enabled(zapcore.ErrorLevel))
}

func TestInit(t *testing.T) {
	saved := logger.Log
	t.Cleanup(func() { logger.Log = saved })

	require.NoError(t, logger.Init(true))
	require.True(t, logger.Log.Desugar().Core().Enabled(zapcore.DebugLevel))
	require.NoError(t, logger.Init(false))
	require.False(t, logger.Log.Desugar().Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Log.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestLog_StructuredFields(t *testing.T) {
	saved := logger.Log
	t.Cleanup(func() { logger.Log = saved })

	core, logs := observer.New(zapcore.DebugLevel)
	logger.Log = zap.New(core).Sugar()
	logger.Log.Debugw("covariance discretized", "kind", "Matern", "points", 12)

	entries := logs.FilterMessage("covariance discretized").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "Matern", fields["kind"])
	require.EqualValues(t, 12, fields["points"])
}
