package db

import (
	"context" // Context passed by gorm
	"errors"  // Error kind checks
	"time"    // Query latency

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger interface
)

// SlowQueryThreshold is the latency above which a query is logged as a warning
const SlowQueryThreshold = 200 * time.Millisecond

// gormLogger sends gorm output to logrus at the matching level
type gormLogger struct {
	entry *logrus.Entry
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(entry *logrus.Entry) *gormLogger {
	return &gormLogger{entry: entry, level: logger.Warn, slow: SlowQueryThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.entry.Infof(msg, args...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.entry.Warnf(msg, args...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.entry.Errorf(msg, args...)
	}
}

// Trace logs failed queries as errors and slow ones as warnings. Not-found lookups are expected and skipped.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.entry.WithFields(logrus.Fields{
			"sql":     sql,         // Executed statement
			"rows":    rows,        // Rows affected
			"elapsed": elapsed,     // Query latency
			"error":   err.Error(), // Error message
		}).Error("Query failed")
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		sql, rows := fc()
		l.entry.WithFields(logrus.Fields{
			"sql":     sql,     // Executed statement
			"rows":    rows,    // Rows affected
			"elapsed": elapsed, // Query latency
		}).Warn("Slow query")
	case l.level >= logger.Info:
		sql, rows := fc()
		l.entry.WithFields(logrus.Fields{
			"sql":     sql,     // Executed statement
			"rows":    rows,    // Rows affected
			"elapsed": elapsed, // Query latency
		}).Debug("Query")
	}
}
