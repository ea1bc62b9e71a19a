package go_smcu

import (
	"os"

	"github.com/go-i2p/logger"
)

var logInstance = logger.GetGoI2PLogger()

// Logging utility functions

// LogInit initializes the logger with the specified level.
// The go-i2p logger reads its level from DEBUG_I2P, so this must run before
// the first message is logged to take effect.
func LogInit(level int) {
	switch level {
	case DEBUG, INFO:
		os.Setenv("DEBUG_I2P", "debug")
	case WARNING:
		os.Setenv("DEBUG_I2P", "warn")
	case ERROR:
		os.Setenv("DEBUG_I2P", "error")
	case FATAL:
		os.Setenv("DEBUG_I2P", "fatal")
		os.Setenv("WARNFAIL_I2P", "true")
	default:
		os.Setenv("DEBUG_I2P", "warn")
	}
	logger.InitializeGoI2PLogger()
	logInstance = logger.GetGoI2PLogger()
}

// ParseLogLevel maps a level name from configuration to a LogInit level.
// Unknown names map to WARNING.
func ParseLogLevel(name string) int {
	switch name {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return WARNING
	}
}

// Debug logs a debug message with optional arguments.
func Debug(message string, args ...interface{}) {
	if len(args) == 0 {
		logInstance.Debug(message)
		return
	}
	logInstance.Debugf(message, args...)
}

// Warning logs a warning message with optional arguments.
func Warning(message string, args ...interface{}) {
	if len(args) == 0 {
		logInstance.Warn(message)
		return
	}
	logInstance.Warnf(message, args...)
}

// Error logs an error message with optional arguments.
func Error(message string, args ...interface{}) {
	if len(args) == 0 {
		logInstance.Error(message)
		return
	}
	logInstance.Errorf(message, args...)
}
