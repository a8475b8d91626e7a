package util

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogLevel maps LOG_LEVEL onto the logger; unknown values fall back to info
func SetLogLevel(logger *logrus.Logger, level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// NewLogger builds the JSON logger every entry point uses
func NewLogger(isLocal bool, level string) *logrus.Logger {
	logger := logrus.New()
	SetLogLevel(logger, level)
	logger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: isLocal,
	})
	return logger
}
