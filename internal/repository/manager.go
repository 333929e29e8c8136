package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	gameConfigOnce sync.Once
	gameConfig     GameConfigRepository

	spinRecordOnce sync.Once
	spinRecord     SpinRecordRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// DB 底层数据库连接
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// GameConfig 游戏配置仓储
func (m *Manager) GameConfig() GameConfigRepository {
	m.gameConfigOnce.Do(func() {
		m.gameConfig = NewGameConfigRepository(m.db)
	})
	return m.gameConfig
}

// SpinRecord 抽奖记录仓储
func (m *Manager) SpinRecord() SpinRecordRepository {
	m.spinRecordOnce.Do(func() {
		m.spinRecord = NewSpinRecordRepository(m.db)
	})
	return m.spinRecord
}

// Transaction 在事务内使用一组新的仓储
func (m *Manager) Transaction(ctx context.Context, fn func(tx *Manager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewManager(tx))
	})
}
