package models

// GameConfigRecord 游戏配置快照，每次生效的配置都会落一条
type GameConfigRecord struct {
	BaseModel
	GameType      string      `gorm:"size:50;not null;uniqueIndex:idx_game_version" json:"game_type"`
	Version       uint64      `gorm:"not null;uniqueIndex:idx_game_version" json:"version"`
	TargetWinRate float64     `gorm:"not null" json:"target_win_rate"`
	Outcomes      OutcomeList `gorm:"type:text;not null" json:"outcomes"`
	Source        string      `gorm:"size:20" json:"source"` // api, file, default
}

// TableName 表名
func (GameConfigRecord) TableName() string {
	return "game_configs"
}
