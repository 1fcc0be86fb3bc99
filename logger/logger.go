package logger

import (
	"os"

	"go.uber.org/zap"
)

// Log is the process-wide logger. Init replaces it in main; the default
// no-op logger keeps tests and early package code safe.
var Log = zap.NewNop()

// Init builds the process logger. LOG_LEVEL=debug switches to a
// development config, anything else gets the production config.
func Init() error {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("LOG_LEVEL") == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = Log.Sync()
}
