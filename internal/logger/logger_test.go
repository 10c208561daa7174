package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.True(logger.Core().Enabled(zapcore.InfoLevel))
	suite.False(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel("debug")
	suite.NoError(err)
	suite.True(logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLoggerWithLevel("ERROR")
	suite.NoError(err)
	suite.False(logger.Core().Enabled(zapcore.WarnLevel))
	suite.True(logger.Core().Enabled(zapcore.ErrorLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithUnknownLevel() {
	logger, err := NewLoggerWithLevel("verbose")
	suite.Error(err)
	suite.Nil(logger)
}

func (suite *LoggerTestSuite) TestParseLevel() {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{input: "", expected: zapcore.InfoLevel},
		{input: "info", expected: zapcore.InfoLevel},
		{input: " Debug ", expected: zapcore.DebugLevel},
		{input: "warning", expected: zapcore.WarnLevel},
		{input: "warn", expected: zapcore.WarnLevel},
		{input: "error", expected: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		suite.Run(tt.input, func() {
			level, err := ParseLevel(tt.input)
			suite.NoError(err)
			suite.Equal(tt.expected, level)
		})
	}
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	// Sync should not panic and should return nil for a nil inner logger
	err := logger.Sync()
	suite.NoError(err)
}

func (suite *LoggerTestSuite) TestNopLogger() {
	logger := NewNopLogger()
	suite.NotNil(logger.Logger)

	// These should not panic
	logger.Info("scan finished", zap.Int("buy", 1), zap.Int("sell", 0))
	logger.Warn("fetch failed", zap.String("symbol", "BTCUSDT"))
	suite.NoError(logger.Sync())
}
