package testutil

import (
	"path/filepath"
	"testing"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/database"
	"github.com/blues/smartfarmer/internal/logger"
	"gorm.io/gorm"
)

// NewTestDB 在临时目录创建已迁移的 sqlite 数据库，日志静默
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetDefaultLogger(logger.NewNop())

	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		DBName: filepath.Join(t.TempDir(), "smartfarmer.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// InvestmentConfig 测试用的快速重试参数
func InvestmentConfig() config.InvestmentConfig {
	return config.InvestmentConfig{MaxRetries: 5, RetryBaseMs: 1, RetryMaxMs: 5}
}
