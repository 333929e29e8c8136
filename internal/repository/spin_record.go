package repository

import (
	"context"
	"time"

	"github.com/wfunc/fairness-engine/internal/models"
	"gorm.io/gorm"
)

// SpinRecordRepository 抽奖记录仓储接口
type SpinRecordRepository interface {
	Create(ctx context.Context, record *models.SpinRecord) error
	FindByRoundID(ctx context.Context, roundID string) (*models.SpinRecord, error)
	FindByPlayer(ctx context.Context, playerID string, p *Pagination) ([]*models.SpinRecord, error)
	GetStatistics(ctx context.Context, gameType string, since time.Time) (*SpinStatistics, error)
}

// SpinStatistics 游戏实际开奖统计
type SpinStatistics struct {
	GameType      string           `json:"game_type"`
	TotalRounds   int64            `json:"total_rounds"`
	WinRounds     int64            `json:"win_rounds"`
	WinRate       float64          `json:"win_rate"` // 百分比
	TotalBet      float64          `json:"total_bet"`
	TotalPayout   float64          `json:"total_payout"`
	RTP           float64          `json:"rtp"`
	MaxMultiplier float64          `json:"max_multiplier"`
	MaxPayout     float64          `json:"max_payout"`
	Hits          map[string]int64 `json:"hits"`
}

type spinRecordRepo struct {
	repo
}

// NewSpinRecordRepository 创建抽奖记录仓储
func NewSpinRecordRepository(db *gorm.DB) SpinRecordRepository {
	return &spinRecordRepo{
		repo: repo{db: db},
	}
}

// Create 保存抽奖记录
func (r *spinRecordRepo) Create(ctx context.Context, record *models.SpinRecord) error {
	return r.conn(ctx).Create(record).Error
}

// FindByRoundID 根据回合ID查找
func (r *spinRecordRepo) FindByRoundID(ctx context.Context, roundID string) (*models.SpinRecord, error) {
	var record models.SpinRecord
	err := r.conn(ctx).
		Where("round_id = ?", roundID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByPlayer 玩家抽奖历史，最近的在前
func (r *spinRecordRepo) FindByPlayer(ctx context.Context, playerID string, p *Pagination) ([]*models.SpinRecord, error) {
	var records []*models.SpinRecord

	if err := r.conn(ctx).
		Model(&models.SpinRecord{}).
		Where("player_id = ?", playerID).
		Count(&p.Total).Error; err != nil {
		return nil, err
	}

	err := r.conn(ctx).
		Where("player_id = ?", playerID).
		Order("played_at desc, id desc").
		Scopes(Paginate(p)).
		Find(&records).Error
	return records, err
}

// GetStatistics 统计 since 之后的开奖情况，since 为零值时统计全部
func (r *spinRecordRepo) GetStatistics(ctx context.Context, gameType string, since time.Time) (*SpinStatistics, error) {
	stats := SpinStatistics{GameType: gameType, Hits: make(map[string]int64)}

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.SpinRecord{}).Where("game_type = ?", gameType)
		if !since.IsZero() {
			db = db.Where("played_at >= ?", since)
		}
		return db
	}

	err := r.conn(ctx).
		Scopes(scope).
		Select(
			"COUNT(*) as total_rounds",
			"COUNT(CASE WHEN multiplier > 0 THEN 1 END) as win_rounds",
			"COALESCE(SUM(bet_amount), 0) as total_bet",
			"COALESCE(SUM(payout_amount), 0) as total_payout",
			"COALESCE(MAX(multiplier), 0) as max_multiplier",
			"COALESCE(MAX(payout_amount), 0) as max_payout",
		).
		Row().Scan(
			&stats.TotalRounds,
			&stats.WinRounds,
			&stats.TotalBet,
			&stats.TotalPayout,
			&stats.MaxMultiplier,
			&stats.MaxPayout,
		)
	if err != nil {
		return nil, err
	}

	var hits []struct {
		OutcomeID string
		Count     int64
	}
	if err := r.conn(ctx).
		Scopes(scope).
		Select("outcome_id, COUNT(*) as count").
		Group("outcome_id").
		Scan(&hits).Error; err != nil {
		return nil, err
	}
	for _, h := range hits {
		stats.Hits[h.OutcomeID] = h.Count
	}

	if stats.TotalRounds > 0 {
		stats.WinRate = float64(stats.WinRounds) / float64(stats.TotalRounds) * 100
	}
	if stats.TotalBet > 0 {
		stats.RTP = stats.TotalPayout / stats.TotalBet
	}
	return &stats, nil
}
