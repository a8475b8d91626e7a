package util

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"WARN":  logrus.WarnLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"DEBUG": logrus.DebugLevel,
		"other": logrus.InfoLevel,
	}

	for level, expected := range cases {
		logger := logrus.New()
		SetLogLevel(logger, level)
		assert.Equal(t, expected, logger.GetLevel(), level)
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(true, "debug")

	formatter, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
	assert.True(t, formatter.PrettyPrint)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}
