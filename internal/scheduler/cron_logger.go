package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"go.uber.org/zap"
)

// cronLogger routes cron's internal logging to zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

var _ cron.Logger = (*cronLogger)(nil)

func newCronLogger(log *logger.Logger) *cronLogger {
	return &cronLogger{sugar: log.Named("cron").Sugar()}
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.sugar.Debugw(msg, keysAndValues...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
