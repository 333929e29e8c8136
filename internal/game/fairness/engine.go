package fairness

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// GameConfig 某一游戏类型的配置快照，发布后不再修改
type GameConfig struct {
	GameType      string        `json:"game_type"`
	Table         *OutcomeTable `json:"outcomes"`
	TargetWinRate float64       `json:"target_win_rate"` // 0-100
	Version       uint64        `json:"version"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Distribution 计算当前快照的有效分布
func (c *GameConfig) Distribution() (Distribution, error) {
	return Distribute(c.Table, c.TargetWinRate)
}

// SpinResult 一次旋转的结果
type SpinResult struct {
	GameType      string  `json:"game_type"`
	OutcomeID     string  `json:"outcome_id"`
	Label         string  `json:"label"`
	Multiplier    float64 `json:"multiplier"`
	BetAmount     float64 `json:"bet_amount"`
	PayoutAmount  float64 `json:"payout_amount"`
	IsWin         bool    `json:"is_win"`
	Probability   float64 `json:"probability"`  // 命中结果的有效概率
	RandomValue   float64 `json:"random_value"` // 本次使用的均匀随机数，用于审计回放
	ConfigVersion uint64  `json:"config_version"`
}

// Round 已完成校验、尚未抽取的一次旋转
type Round struct {
	config *GameConfig
	bet    float64
	dist   Distribution
}

// Prepare 校验下注和配置并计算有效分布，不消耗随机数
func Prepare(config *GameConfig, betAmount float64) (*Round, error) {
	gameType := ""
	if config != nil {
		gameType = config.GameType
	}
	if err := checkBet(gameType, betAmount); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, &SpinError{Reason: ReasonUnknownGame, BetAmount: betAmount}
	}

	dist, err := config.Distribution()
	if err != nil {
		return nil, &SpinError{Reason: ReasonConfig, GameType: gameType, BetAmount: betAmount, Cause: err}
	}

	return &Round{config: config, bet: betAmount, dist: dist}, nil
}

func checkBet(gameType string, betAmount float64) error {
	if !(betAmount > 0) || math.IsInf(betAmount, 1) {
		return &SpinError{Reason: ReasonInvalidBet, GameType: gameType, BetAmount: betAmount}
	}
	return nil
}

// Config 本次旋转使用的配置快照
func (r *Round) Config() *GameConfig {
	return r.config
}

// Distribution 本次旋转使用的有效分布
func (r *Round) Distribution() Distribution {
	return r.dist
}

// Draw 取一个随机数并抽取结果，source 为 nil 时使用加密随机数
func (r *Round) Draw(source RandomSource) *SpinResult {
	if source == nil {
		source = NewCryptoSource()
	}
	u := source.Float64()
	entry := Sample(r.dist, u)

	return &SpinResult{
		GameType:      r.config.GameType,
		OutcomeID:     entry.Outcome.ID,
		Label:         entry.Outcome.Label,
		Multiplier:    entry.Outcome.Multiplier,
		BetAmount:     r.bet,
		PayoutAmount:  r.bet * entry.Outcome.Multiplier,
		IsWin:         entry.Outcome.IsWin(),
		Probability:   entry.Probability,
		RandomValue:   u,
		ConfigVersion: r.config.Version,
	}
}

// Spin 基于配置快照执行一次旋转
func Spin(config *GameConfig, betAmount float64, source RandomSource) (*SpinResult, error) {
	round, err := Prepare(config, betAmount)
	if err != nil {
		return nil, err
	}
	return round.Draw(source), nil
}

// Replay 用记录的随机数重新计算结果
func Replay(config *GameConfig, betAmount, randomValue float64) (*SpinResult, error) {
	return Spin(config, betAmount, NewSequenceSource(randomValue))
}

// Engine 按游戏类型保存配置快照
//
// 写入时整体替换快照指针，读取方只会看到完整的旧配置或完整的新配置。
type Engine struct {
	mu    sync.RWMutex
	games map[string]*GameConfig
	now   func() time.Time
}

// NewEngine 创建引擎
func NewEngine() *Engine {
	return &Engine{
		games: make(map[string]*GameConfig),
		now:   time.Now,
	}
}

// SetGameConfig 发布新的配置快照，胜率超出范围时截断到 [0, 100]
func (e *Engine) SetGameConfig(gameType string, table *OutcomeTable, targetWinRate float64) (*GameConfig, error) {
	config, err := newSnapshot(gameType, table, targetWinRate)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	config.Version = 1
	if prev, ok := e.games[gameType]; ok {
		config.Version = prev.Version + 1
	}
	config.UpdatedAt = e.now()
	e.games[gameType] = config
	return config, nil
}

// CompareAndSetGameConfig 仅当当前版本等于 expectedVersion 时发布新快照
//
// expectedVersion 为 0 表示游戏尚未配置。版本不符时返回 ErrVersionConflict，
// 调用方应重新读取快照后重试。
func (e *Engine) CompareAndSetGameConfig(gameType string, expectedVersion uint64, table *OutcomeTable, targetWinRate float64) (*GameConfig, error) {
	config, err := newSnapshot(gameType, table, targetWinRate)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var current uint64
	if prev, ok := e.games[gameType]; ok {
		current = prev.Version
	}
	if current != expectedVersion {
		return nil, fmt.Errorf("%w: %s 期望版本 %d, 当前版本 %d", ErrVersionConflict, gameType, expectedVersion, current)
	}

	config.Version = current + 1
	config.UpdatedAt = e.now()
	e.games[gameType] = config
	return config, nil
}

// Restore 以指定版本号安装快照，版本不高于当前版本时忽略并返回 false
func (e *Engine) Restore(gameType string, table *OutcomeTable, targetWinRate float64, version uint64, updatedAt time.Time) (bool, error) {
	config, err := newSnapshot(gameType, table, targetWinRate)
	if err != nil {
		return false, err
	}
	config.Version = version
	config.UpdatedAt = updatedAt

	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.games[gameType]; ok && prev.Version >= version {
		return false, nil
	}
	e.games[gameType] = config
	return true, nil
}

func newSnapshot(gameType string, table *OutcomeTable, targetWinRate float64) (*GameConfig, error) {
	if strings.TrimSpace(gameType) == "" {
		return nil, newConfigError(RuleInvalidGameType, -1, "", "")
	}
	if table.Len() == 0 {
		return nil, newConfigError(RuleEmptyTable, -1, "", "")
	}
	if math.IsNaN(targetWinRate) {
		return nil, newConfigError(RuleInvalidWinRate, -1, "", "")
	}

	config := &GameConfig{
		GameType:      gameType,
		Table:         table,
		TargetWinRate: ClampWinRate(targetWinRate),
	}
	if _, err := config.Distribution(); err != nil {
		return nil, err
	}
	return config, nil
}

// Game 获取游戏当前快照
func (e *Engine) Game(gameType string) (*GameConfig, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	config, ok := e.games[gameType]
	return config, ok
}

// Games 按游戏类型排序返回所有快照
func (e *Engine) Games() []*GameConfig {
	e.mu.RLock()
	configs := make([]*GameConfig, 0, len(e.games))
	for _, c := range e.games {
		configs = append(configs, c)
	}
	e.mu.RUnlock()

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].GameType < configs[j].GameType
	})
	return configs
}

// Prepare 读取当前快照并校验，不消耗随机数
func (e *Engine) Prepare(gameType string, betAmount float64) (*Round, error) {
	if err := checkBet(gameType, betAmount); err != nil {
		return nil, err
	}
	config, ok := e.Game(gameType)
	if !ok {
		return nil, &SpinError{Reason: ReasonUnknownGame, GameType: gameType, BetAmount: betAmount}
	}
	return Prepare(config, betAmount)
}

// Spin 对当前快照执行一次旋转
func (e *Engine) Spin(gameType string, betAmount float64, source RandomSource) (*SpinResult, error) {
	round, err := e.Prepare(gameType, betAmount)
	if err != nil {
		return nil, err
	}
	return round.Draw(source), nil
}
