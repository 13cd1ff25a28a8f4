package observability

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"grinkit/internal/config"
)

func resetGlobalLogger() {
	globalLogger.Store(nil)
}

func TestGetLoggerBeforeInit(t *testing.T) {
	resetGlobalLogger()
	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("dropped")
}

func TestInitializeLoggerJSON(t *testing.T) {
	resetGlobalLogger()
	t.Cleanup(resetGlobalLogger)

	var buf bytes.Buffer
	cfg := config.Default().Logger
	cfg.Format = "json"
	cfg.Level = "debug"
	cfg.ServiceName = "grinkit-test"

	logger := initializeLogger(cfg, zapcore.AddSync(&buf))
	logger.Debug("fragment built", zap.Int("vertices", 6))

	out := buf.String()
	assert.Contains(t, out, `"level":"DEBUG"`)
	assert.Contains(t, out, `"logger":"grinkit-test"`)
	assert.Contains(t, out, `"vertices":6`)
	assert.Same(t, logger, GetLogger())
}

func TestInitializeLoggerLevelFilter(t *testing.T) {
	resetGlobalLogger()
	t.Cleanup(resetGlobalLogger)

	var buf bytes.Buffer
	cfg := config.Default().Logger
	cfg.Level = "warn"

	logger := initializeLogger(cfg, zapcore.AddSync(&buf))
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	resetGlobalLogger()
	t.Cleanup(resetGlobalLogger)

	var buf bytes.Buffer
	cfg := config.Default().Logger
	cfg.Level = "chatty"

	logger := initializeLogger(cfg, zapcore.AddSync(&buf))
	logger.Debug("debug line")
	logger.Info("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestConsoleColors(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default().Logger
	cfg.Format = "console"

	NewWriterLogger(cfg, &buf).Warn("careful")

	line := buf.String()
	assert.True(t, strings.Contains(line, "\x1b[33mWARN"+colorReset), "warn should be yellow: %q", line)
}

func TestFileCore(t *testing.T) {
	resetGlobalLogger()
	t.Cleanup(resetGlobalLogger)

	var buf bytes.Buffer
	cfg := config.Default().Logger
	cfg.LogFile = filepath.Join(t.TempDir(), "grinkit.log")

	logger := initializeLogger(cfg, zapcore.AddSync(&buf))
	logger.Info("to both")
	require.NoError(t, logger.Sync())

	assert.Contains(t, buf.String(), "to both")
}
