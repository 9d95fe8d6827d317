package utils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"printer-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(&config.LoggingConfig{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "printer.log")

	logger, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json", Output: path, MaxSize: 1})
	require.NoError(t, err)

	logger.Info("hello")
	assert.NoError(t, CloseLogger(logger))
	assert.FileExists(t, path)
}

func TestPrinterLoggerCancelledIsInfo(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pl := NewPrinterLogger(zap.New(core), "BLUETOOTH")

	pl.LogConnection("connect", true, errors.New("device selection cancelled"))
	pl.LogConnection("connect", false, errors.New("no suitable OUT endpoint"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "BLUETOOTH", entries[0].ContextMap()["printer_kind"])
}

func TestPrinterLoggerLogPrint(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	pl := NewPrinterLogger(zap.New(core), "USB")

	pl.LogPrint("TEXT", 42, 0, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Print job completed", logs.All()[0].Message)
	assert.Equal(t, int64(42), logs.All()[0].ContextMap()["bytes"])
}
