package scheduler

import (
	"fmt"
	"os"

	"leadcall_backend/platform/logger"
)

// asynqLogger routes asynq's internal logging through the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func newAsynqLogger(log *logger.Logger) *asynqLogger {
	return &asynqLogger{log: log}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug("asynq: " + fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info("asynq: " + fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn("asynq: " + fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error("asynq: " + fmt.Sprint(args...)) }

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Error("asynq: " + fmt.Sprint(args...))
	os.Exit(1)
}
