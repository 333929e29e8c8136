package models

import "time"

// SpinRecord 单次抽奖记录
type SpinRecord struct {
	BaseModel
	RoundID       string    `gorm:"uniqueIndex;size:64;not null" json:"round_id"`
	PlayerID      string    `gorm:"size:64;not null;index" json:"player_id"`
	GameType      string    `gorm:"size:50;not null;index" json:"game_type"`
	ConfigVersion uint64    `gorm:"not null" json:"config_version"`
	BetAmount     float64   `gorm:"not null" json:"bet_amount"`
	OutcomeID     string    `gorm:"size:64;not null" json:"outcome_id"`
	Multiplier    float64   `gorm:"default:0" json:"multiplier"`
	PayoutAmount  float64   `gorm:"default:0" json:"payout_amount"`
	IsWin         bool      `gorm:"default:false" json:"is_win"`
	RandomValue   float64   `json:"random_value"`
	BalanceAfter  float64   `json:"balance_after"`

	// 可验证公平模式下的种子信息
	ServerSeed     string `gorm:"size:128" json:"-"`
	ServerSeedHash string `gorm:"size:64" json:"server_seed_hash,omitempty"`
	ClientSeed     string `gorm:"size:128" json:"client_seed,omitempty"`
	Nonce          uint64 `json:"nonce,omitempty"`

	PlayedAt time.Time `gorm:"index" json:"played_at"`
}

// TableName 表名
func (SpinRecord) TableName() string {
	return "spin_records"
}

// ProvablyFair 是否为可验证公平模式的记录
func (r *SpinRecord) ProvablyFair() bool {
	return r.ServerSeedHash != ""
}

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&GameConfigRecord{},
		&SpinRecord{},
	}
}
