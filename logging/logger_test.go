package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	var testCases = []struct {
		in        string
		expect    zapcore.Level
		expectErr bool
	}{
		{in: "", expect: zapcore.InfoLevel},
		{in: "debug", expect: zapcore.DebugLevel},
		{in: " WARN ", expect: zapcore.WarnLevel},
		{in: "loud", expectErr: true},
	}
	for _, testCase := range testCases {
		lvl, err := ParseLevel(testCase.in)
		if testCase.expectErr {
			assert.Error(t, err, testCase.in)
			continue
		}
		require.NoError(t, err, testCase.in)
		assert.Equal(t, testCase.expect, lvl, testCase.in)
	}
}

func TestNew(t *testing.T) {
	logger, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
