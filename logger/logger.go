package logger

import (
	"go.uber.org/zap"
)

var log = zap.NewNop()

// Init builds the process-wide logger. JSON in production, console otherwise.
func Init(development bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L returns the process logger. Safe to call before Init (no-op logger).
func L() *zap.Logger {
	return log
}

func Sync() {
	_ = log.Sync()
}
