package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// LogrusLogger routes gorm's logs through the process-wide logrus logger,
// so registry persistence shares the level and formatter of the rest of
// the run.
type LogrusLogger struct {
	logger *logrus.Logger
}

func NewLogrusLogger() *LogrusLogger {
	return &LogrusLogger{
		logger: logrus.StandardLogger(),
	}
}

func (l *LogrusLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	return &newLogger
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WithContext(ctx).Infof(msg, data...)
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WithContext(ctx).Warnf(msg, data...)
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WithContext(ctx).Errorf(msg, data...)
}

func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := logrus.Fields{
		"elapsed": elapsed,
		"rows":    rows,
		"sql":     sql,
	}

	if err != nil {
		l.logger.WithContext(ctx).WithFields(fields).Error(err)
	} else if elapsed > slowQueryThreshold {
		l.logger.WithContext(ctx).WithFields(fields).Warnf("SLOW SQL >= %s", slowQueryThreshold)
	} else {
		// successful statements are noise at the optimizer's pace
		l.logger.WithContext(ctx).WithFields(fields).Debug("SQL")
	}
}
