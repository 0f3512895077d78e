package database

import (
	"context"
	"errors"
	"time"

	"github.com/blues/smartfarmer/internal/logger"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger 把 GORM 日志转发到 zap
type GormLogger struct {
	level gormLogger.LogLevel
}

// NewGormLogger 创建 GORM 日志适配器
func NewGormLogger(level gormLogger.LogLevel) *GormLogger {
	return &GormLogger{level: level}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	return &GormLogger{level: level}
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Info {
		logger.Info("gorm: "+msg, args...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Warn {
		logger.Warn("gorm: "+msg, args...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Error {
		logger.Error("gorm: "+msg, args...)
	}
}

// Trace 记录 SQL，未找到记录不算错误
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormLogger.Error:
		sql, rows := fc()
		logger.Error("gorm query failed: %v [%s] rows=%d sql=%s", err, elapsed, rows, sql)
	case elapsed > slowQueryThreshold && l.level >= gormLogger.Warn:
		sql, rows := fc()
		logger.Warn("gorm slow query [%s] rows=%d sql=%s", elapsed, rows, sql)
	case l.level >= gormLogger.Info:
		sql, rows := fc()
		logger.Debug("gorm [%s] rows=%d sql=%s", elapsed, rows, sql)
	}
}
