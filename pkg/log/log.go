// Package log provides the process-wide zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

// Init initializes the package-level logger. Debug selects the
// human-readable development encoder with debug level enabled.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	sugar = l.Sugar()
	return nil
}

// Logger returns the package logger, falling back to a production logger
// if Init was not called.
func Logger() *zap.SugaredLogger {
	if sugar == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		sugar = l.Sugar()
	}
	return sugar
}

// Named returns a child logger for a component.
func Named(name string) *zap.SugaredLogger {
	return Logger().Named(name)
}

// Sync flushes any buffered log entries.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

// Infof logs a formatted message at info level.
func Infof(template string, args ...interface{}) {
	Logger().Infof(template, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...interface{}) {
	Logger().Warnf(template, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...interface{}) {
	Logger().Errorf(template, args...)
}

// Debugw logs a message with key/value pairs at debug level.
func Debugw(msg string, keysAndValues ...interface{}) {
	Logger().Debugw(msg, keysAndValues...)
}
