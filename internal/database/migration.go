package database

import (
	"fmt"

	"github.com/wfunc/fairness-engine/internal/logger"
	"github.com/wfunc/fairness-engine/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// SQLite 文件库多进程同时迁移时用锁文件互斥
	if path := databaseFile(db); path != "" {
		lock, err := acquireMigrationLock(path)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lock)
	}

	logger.Info("开始数据库迁移...")
	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建统计查询用的组合索引
func createIndexes(db *gorm.DB) {
	indexes := map[string]string{
		"idx_spin_records_game_played":   "CREATE INDEX IF NOT EXISTS idx_spin_records_game_played ON spin_records(game_type, played_at)",
		"idx_spin_records_player_played": "CREATE INDEX IF NOT EXISTS idx_spin_records_player_played ON spin_records(player_id, played_at)",
	}
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}
}
