package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/fairness-engine/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建测试用内存数据库，每个测试独立一个库
func TestDB(t testing.TB) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 共享缓存的内存库多连接并发写会锁表
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateTestSpinRecord 创建测试抽奖记录
func CreateTestSpinRecord(playerID, gameType, outcomeID string, bet, multiplier float64, playedAt time.Time) *models.SpinRecord {
	return &models.SpinRecord{
		RoundID:       uuid.NewString(),
		PlayerID:      playerID,
		GameType:      gameType,
		ConfigVersion: 1,
		BetAmount:     bet,
		OutcomeID:     outcomeID,
		Multiplier:    multiplier,
		PayoutAmount:  bet * multiplier,
		IsWin:         multiplier > 0,
		RandomValue:   0.5,
		PlayedAt:      playedAt,
	}
}

// CreateTestGameConfig 创建测试配置快照
func CreateTestGameConfig(gameType string, version uint64, rate float64) *models.GameConfigRecord {
	return &models.GameConfigRecord{
		GameType:      gameType,
		Version:       version,
		TargetWinRate: rate,
		Outcomes: models.OutcomeList{
			{ID: "lose", Label: "未中奖", Weight: 65, Multiplier: 0},
			{ID: "win", Label: "中奖", Weight: 35, Multiplier: 2},
		},
		Source: "api",
	}
}
