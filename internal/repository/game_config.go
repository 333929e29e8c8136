package repository

import (
	"context"

	"github.com/wfunc/fairness-engine/internal/models"
	"gorm.io/gorm"
)

// GameConfigRepository 游戏配置快照仓储接口
type GameConfigRepository interface {
	Create(ctx context.Context, record *models.GameConfigRecord) error
	Latest(ctx context.Context, gameType string) (*models.GameConfigRecord, error)
	LatestAll(ctx context.Context) ([]*models.GameConfigRecord, error)
	FindVersion(ctx context.Context, gameType string, version uint64) (*models.GameConfigRecord, error)
	ListByGame(ctx context.Context, gameType string, p *Pagination) ([]*models.GameConfigRecord, error)
}

type gameConfigRepo struct {
	repo
}

// NewGameConfigRepository 创建游戏配置仓储
func NewGameConfigRepository(db *gorm.DB) GameConfigRepository {
	return &gameConfigRepo{
		repo: repo{db: db},
	}
}

// Create 保存配置快照，同一游戏同一版本只能有一条
func (r *gameConfigRepo) Create(ctx context.Context, record *models.GameConfigRecord) error {
	return r.conn(ctx).Create(record).Error
}

// Latest 获取游戏最新版本的配置
func (r *gameConfigRepo) Latest(ctx context.Context, gameType string) (*models.GameConfigRecord, error) {
	var record models.GameConfigRecord
	err := r.conn(ctx).
		Where("game_type = ?", gameType).
		Order("version desc").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LatestAll 每个游戏各取最新版本
func (r *gameConfigRepo) LatestAll(ctx context.Context) ([]*models.GameConfigRecord, error) {
	var records []*models.GameConfigRecord
	latest := r.conn(ctx).
		Model(&models.GameConfigRecord{}).
		Select("game_type, MAX(version) AS version").
		Group("game_type")

	err := r.conn(ctx).
		Joins("JOIN (?) AS latest ON latest.game_type = game_configs.game_type AND latest.version = game_configs.version", latest).
		Order("game_configs.game_type").
		Find(&records).Error
	return records, err
}

// FindVersion 获取指定版本
func (r *gameConfigRepo) FindVersion(ctx context.Context, gameType string, version uint64) (*models.GameConfigRecord, error) {
	var record models.GameConfigRecord
	err := r.conn(ctx).
		Where("game_type = ? AND version = ?", gameType, version).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByGame 配置变更历史，新版本在前
func (r *gameConfigRepo) ListByGame(ctx context.Context, gameType string, p *Pagination) ([]*models.GameConfigRecord, error) {
	var records []*models.GameConfigRecord

	if err := r.conn(ctx).
		Model(&models.GameConfigRecord{}).
		Where("game_type = ?", gameType).
		Count(&p.Total).Error; err != nil {
		return nil, err
	}

	err := r.conn(ctx).
		Where("game_type = ?", gameType).
		Order("version desc").
		Scopes(Paginate(p)).
		Find(&records).Error
	return records, err
}
