package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		logger, err := NewLogger("info", "json")
		assert.NoError(t, err)
		assert.NotNil(t, logger)
		assert.IsType(t, &zap.Logger{}, logger)
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})
}

func TestNewLoggerConsoleDebug(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerRejectsBadInput(t *testing.T) {
	_, err := NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestMustNewLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		logger := MustNewLogger("warn", "")
		assert.NotNil(t, logger)
	})
	assert.Panics(t, func() {
		MustNewLogger("nope", "json")
	})
}
