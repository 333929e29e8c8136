package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/fairness-engine/internal/config"
	apperrors "github.com/wfunc/fairness-engine/internal/errors"
	"github.com/wfunc/fairness-engine/internal/game/fairness"
	"github.com/wfunc/fairness-engine/internal/logger"
	"github.com/wfunc/fairness-engine/internal/models"
	"github.com/wfunc/fairness-engine/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 配置来源
const (
	SourceAPI     = "api"
	SourceFile    = "file"
	SourceRestore = "restore"
)

// Options 游戏服务的可选依赖
type Options struct {
	Configs       repository.GameConfigRepository // 为 nil 时不保存配置历史
	Spins         repository.SpinRecordRepository // 为 nil 时不保存抽奖记录
	Publisher     Publisher
	Wallet        config.WalletConfig
	MaxSimulation int
	Source        fairness.RandomSource // 默认加密随机数
	Logger        *zap.Logger
}

// GameService 组合引擎、账本、持久化和事件推送
type GameService struct {
	engine        *fairness.Engine
	ledger        Ledger
	configs       repository.GameConfigRepository
	spins         repository.SpinRecordRepository
	publisher     Publisher
	minBet        float64
	maxBet        float64
	maxSimulation int
	source        fairness.RandomSource
	logger        *zap.Logger
	now           func() time.Time
	seeds         *seedStore
}

// NewGameService 创建游戏服务
func NewGameService(engine *fairness.Engine, ledger Ledger, opts Options) *GameService {
	s := &GameService{
		engine:        engine,
		ledger:        ledger,
		configs:       opts.Configs,
		spins:         opts.Spins,
		publisher:     opts.Publisher,
		minBet:        opts.Wallet.MinBet,
		maxBet:        opts.Wallet.MaxBet,
		maxSimulation: opts.MaxSimulation,
		source:        opts.Source,
		logger:        opts.Logger,
		now:           time.Now,
		seeds:         newSeedStore(),
	}
	if s.source == nil {
		s.source = fairness.NewCryptoSource()
	}
	if s.logger == nil {
		s.logger = logger.GetModuleLogger("game")
	}
	if s.maxSimulation <= 0 {
		s.maxSimulation = 1000000
	}
	return s
}

// Engine 底层引擎
func (s *GameService) Engine() *fairness.Engine {
	return s.engine
}

// SpinRequest 下注请求
type SpinRequest struct {
	PlayerID   string  `json:"player_id" binding:"required"`
	GameType   string  `json:"-"`
	BetAmount  float64 `json:"bet_amount"`
	ClientSeed string  `json:"client_seed"`
}

// SpinResponse 下注结果
type SpinResponse struct {
	RoundID  string `json:"round_id"`
	PlayerID string `json:"player_id"`
	*fairness.SpinResult
	Balance        float64   `json:"balance"`
	ServerSeedHash string    `json:"server_seed_hash,omitempty"`
	ClientSeed     string    `json:"client_seed,omitempty"`
	Nonce          uint64    `json:"nonce,omitempty"`
	PlayedAt       time.Time `json:"played_at"`
}

// Spin 完成一次下注：校验、扣款、抽取、派彩、记录、推送
//
// 校验失败或扣款失败时不消耗随机数，也不写任何记录。
// 扣款之后的任何失败都会退还投注，本回合不记录也不推送。
func (s *GameService) Spin(ctx context.Context, req SpinRequest) (*SpinResponse, error) {
	if strings.TrimSpace(req.PlayerID) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "player_id 不能为空")
	}

	round, err := s.engine.Prepare(req.GameType, req.BetAmount)
	if err != nil {
		return nil, apperrors.FromEngine(err)
	}
	if err := s.checkLimits(req.BetAmount); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Debit(ctx, req.PlayerID, req.BetAmount)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "扣款失败")
	}

	resp := &SpinResponse{
		RoundID:  uuid.NewString(),
		PlayerID: req.PlayerID,
		Balance:  balance,
		PlayedAt: s.now(),
	}

	// 带客户端种子时使用抽奖前已承诺的服务端种子
	source := s.source
	var serverSeed string
	if req.ClientSeed != "" {
		seed, hash, nonce, err := s.seeds.Next(req.PlayerID)
		if err != nil {
			return nil, s.refund(ctx, req, resp.RoundID, err)
		}
		serverSeed = seed
		resp.ServerSeedHash = hash
		resp.ClientSeed = req.ClientSeed
		resp.Nonce = nonce
		source = fairness.NewProvablyFairSource(serverSeed, req.ClientSeed, nonce)
	}

	result, err := drawRound(round, source)
	if err != nil {
		return nil, s.refund(ctx, req, resp.RoundID, err)
	}
	resp.SpinResult = result

	if result.PayoutAmount > 0 {
		credited, err := s.ledger.Credit(ctx, req.PlayerID, result.PayoutAmount)
		if err != nil {
			return nil, s.refund(ctx, req, resp.RoundID, err)
		}
		resp.Balance = credited
	}

	s.recordSpin(ctx, req.PlayerID, serverSeed, resp)

	logger.LogGameEvent("spin", resp.RoundID, map[string]interface{}{
		"player_id":      req.PlayerID,
		"game_type":      result.GameType,
		"outcome_id":     result.OutcomeID,
		"bet":            result.BetAmount,
		"payout":         result.PayoutAmount,
		"config_version": result.ConfigVersion,
	})
	s.publish(EventSpinResult, resp)
	return resp, nil
}

// drawRound 抽取结果，系统随机数不可用时返回错误而不是降级
func drawRound(round *fairness.Round, source fairness.RandomSource) (result *fairness.SpinResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !stderrors.Is(e, fairness.ErrEntropyUnavailable) {
				panic(r)
			}
			err = e
		}
	}()
	return round.Draw(source), nil
}

// refund 扣款后的结算失败时退还投注
func (s *GameService) refund(ctx context.Context, req SpinRequest, roundID string, cause error) error {
	fields := []zap.Field{
		zap.String("round_id", roundID),
		zap.String("player_id", req.PlayerID),
		zap.Float64("bet", req.BetAmount),
		zap.Error(cause),
	}

	appErr := apperrors.New(apperrors.ErrSettlementFailed, cause.Error())
	appErr.Cause = cause

	if _, err := s.ledger.Credit(ctx, req.PlayerID, req.BetAmount); err != nil {
		s.logger.Error("结算失败且退还投注失败，需要人工对账", append(fields, zap.NamedError("refund_error", err))...)
		appErr.Details = "退还投注失败，需要人工对账; " + appErr.Details
		return appErr
	}

	s.logger.Error("结算失败，已退还投注", fields...)
	return appErr
}

// RouteKeys 按游戏和玩家推送
func (r *SpinResponse) RouteKeys() (string, string) {
	return r.GameType, r.PlayerID
}

func (s *GameService) checkLimits(bet float64) error {
	if s.minBet > 0 && bet < s.minBet {
		return apperrors.Newf(apperrors.ErrInvalidBet, "下注 %v 低于最小下注 %v", bet, s.minBet)
	}
	if s.maxBet > 0 && bet > s.maxBet {
		return apperrors.Newf(apperrors.ErrInvalidBet, "下注 %v 超过最大下注 %v", bet, s.maxBet)
	}
	return nil
}

// recordSpin 写审计记录，失败只记日志不影响结果
func (s *GameService) recordSpin(ctx context.Context, playerID, serverSeed string, resp *SpinResponse) {
	if s.spins == nil {
		return
	}

	r := resp.SpinResult
	record := &models.SpinRecord{
		RoundID:        resp.RoundID,
		PlayerID:       playerID,
		GameType:       r.GameType,
		ConfigVersion:  r.ConfigVersion,
		BetAmount:      r.BetAmount,
		OutcomeID:      r.OutcomeID,
		Multiplier:     r.Multiplier,
		PayoutAmount:   r.PayoutAmount,
		IsWin:          r.IsWin,
		RandomValue:    r.RandomValue,
		BalanceAfter:   resp.Balance,
		ServerSeed:     serverSeed,
		ServerSeedHash: resp.ServerSeedHash,
		ClientSeed:     resp.ClientSeed,
		Nonce:          resp.Nonce,
		PlayedAt:       resp.PlayedAt,
	}
	if err := s.spins.Create(ctx, record); err != nil {
		s.logger.Error("保存抽奖记录失败",
			zap.String("round_id", resp.RoundID),
			zap.Error(err),
		)
	}
}

func (s *GameService) publish(eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, data); err != nil {
		s.logger.Warn("推送事件失败", zap.String("type", eventType), zap.Error(err))
	}
}

// UpdateConfigRequest 配置变更请求
//
// Outcomes 为空时沿用当前赔率表，只调整胜率。
type UpdateConfigRequest struct {
	TargetWinRate *float64           `json:"target_win_rate"`
	Outcomes      []fairness.Outcome `json:"outcomes"`
}

// UpdateGameConfig 校验并发布新配置，下一次抽取即生效
//
// 省略的字段取自当前快照，并以版本号比较后写入，并发修改时重新读取快照重试。
func (s *GameService) UpdateGameConfig(ctx context.Context, gameType string, req UpdateConfigRequest, source string) (*fairness.GameConfig, error) {
	var table *fairness.OutcomeTable
	if len(req.Outcomes) > 0 {
		t, err := fairness.ValidateTable(req.Outcomes)
		if err != nil {
			return nil, apperrors.FromEngine(err)
		}
		table = t
	}

	var (
		cfg *fairness.GameConfig
		err error
	)
	for attempt := 0; attempt < maxConfigAttempts; attempt++ {
		cfg, err = s.applyConfig(gameType, table, req.TargetWinRate)
		if !stderrors.Is(err, fairness.ErrVersionConflict) {
			break
		}
		s.logger.Debug("配置版本冲突，重试", zap.String("game_type", gameType), zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, apperrors.FromEngine(err)
	}

	s.persistConfig(ctx, cfg, source)
	s.announce(cfg, source)
	return cfg, nil
}

const maxConfigAttempts = 5

func (s *GameService) applyConfig(gameType string, table *fairness.OutcomeTable, rate *float64) (*fairness.GameConfig, error) {
	current, exists := s.engine.Game(gameType)

	var version uint64
	if exists {
		version = current.Version
	}
	if table == nil {
		if !exists {
			_, err := fairness.ValidateTable(nil)
			return nil, err
		}
		table = current.Table
	}

	var r float64
	switch {
	case rate != nil:
		r = *rate
	case exists:
		r = current.TargetWinRate
	default:
		return nil, apperrors.New(apperrors.ErrInvalidParam, "新游戏必须指定 target_win_rate")
	}

	return s.engine.CompareAndSetGameConfig(gameType, version, table, r)
}

func (s *GameService) persistConfig(ctx context.Context, cfg *fairness.GameConfig, source string) {
	if s.configs == nil {
		return
	}
	record := &models.GameConfigRecord{
		GameType:      cfg.GameType,
		Version:       cfg.Version,
		TargetWinRate: cfg.TargetWinRate,
		Outcomes:      models.OutcomeList(cfg.Table.Outcomes()),
		Source:        source,
	}
	if err := s.configs.Create(ctx, record); err != nil {
		s.logger.Error("保存配置版本失败",
			zap.String("game_type", cfg.GameType),
			zap.Uint64("version", cfg.Version),
			zap.Error(err),
		)
	}
}

func (s *GameService) announce(cfg *fairness.GameConfig, source string) {
	logger.LogConfigChange(cfg.GameType, cfg.Version, cfg.TargetWinRate, source)

	event := ConfigUpdatedEvent{
		GameType:      cfg.GameType,
		Version:       cfg.Version,
		TargetWinRate: cfg.TargetWinRate,
		Source:        source,
	}
	if dist, err := cfg.Distribution(); err == nil {
		event.ExpectedRTP = dist.ExpectedMultiplier()
	}
	s.publish(EventConfigUpdated, event)
}

// Restore 用数据库中每个游戏的最新配置版本覆盖引擎
func (s *GameService) Restore(ctx context.Context) (int, error) {
	if s.configs == nil {
		return 0, nil
	}

	records, err := s.configs.LatestAll(ctx)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "读取配置版本失败")
	}

	restored := 0
	for _, record := range records {
		table, err := fairness.ValidateTable(record.Outcomes)
		if err != nil {
			s.logger.Error("数据库中的配置无效，已跳过",
				zap.String("game_type", record.GameType),
				zap.Uint64("version", record.Version),
				zap.Error(err),
			)
			continue
		}
		ok, err := s.engine.Restore(record.GameType, table, record.TargetWinRate, record.Version, record.CreatedAt)
		if err != nil {
			s.logger.Error("恢复配置失败", zap.String("game_type", record.GameType), zap.Error(err))
			continue
		}
		if ok {
			restored++
			logger.LogConfigChange(record.GameType, record.Version, record.TargetWinRate, SourceRestore)
		}
	}
	return restored, nil
}

// LoadGames 加载配置文件中引擎尚未存在的游戏，已恢复的游戏保持数据库版本
func (s *GameService) LoadGames(ctx context.Context, games map[string]config.GameSettings) error {
	var errs []error
	for _, gameType := range sortedGameTypes(games) {
		if _, exists := s.engine.Game(gameType); exists {
			continue
		}
		g := games[gameType]
		rate := g.TargetWinRate
		if _, err := s.UpdateGameConfig(ctx, gameType, UpdateConfigRequest{TargetWinRate: &rate, Outcomes: g.Outcomes}, SourceFile); err != nil {
			errs = append(errs, fmt.Errorf("游戏 %s: %w", gameType, err))
		}
	}
	return stderrors.Join(errs...)
}

// ReloadGames 配置文件变更后重新应用有变化的游戏
//
// 无效的赔率表只记日志，对应游戏继续使用旧快照。返回实际更新的游戏。
func (s *GameService) ReloadGames(ctx context.Context, games map[string]config.GameSettings) []string {
	var changed []string
	for _, gameType := range sortedGameTypes(games) {
		g := games[gameType]
		if current, exists := s.engine.Game(gameType); exists && sameSettings(current, g) {
			continue
		}
		rate := g.TargetWinRate
		if _, err := s.UpdateGameConfig(ctx, gameType, UpdateConfigRequest{TargetWinRate: &rate, Outcomes: g.Outcomes}, SourceFile); err != nil {
			s.logger.Error("配置重载失败，保留旧配置",
				zap.String("game_type", gameType),
				zap.Error(err),
			)
			continue
		}
		changed = append(changed, gameType)
	}
	return changed
}

func sortedGameTypes(games map[string]config.GameSettings) []string {
	types := make([]string, 0, len(games))
	for gameType := range games {
		types = append(types, gameType)
	}
	sort.Strings(types)
	return types
}

func sameSettings(cfg *fairness.GameConfig, g config.GameSettings) bool {
	if fairness.ClampWinRate(g.TargetWinRate) != cfg.TargetWinRate {
		return false
	}
	current := cfg.Table.Outcomes()
	if len(current) != len(g.Outcomes) {
		return false
	}
	for i := range current {
		if current[i] != g.Outcomes[i] {
			return false
		}
	}
	return true
}

// ReplayResult 回放校验结果
type ReplayResult struct {
	RoundID    string               `json:"round_id"`
	Verified   bool                 `json:"verified"`
	Recorded   *models.SpinRecord   `json:"recorded"`
	Replayed   *fairness.SpinResult `json:"replayed"`
	ServerSeed string               `json:"server_seed,omitempty"` // 种子轮换后公开
}

// Replay 用记录的随机数和当时的配置版本重新计算结果
func (s *GameService) Replay(ctx context.Context, gameType, roundID string) (*ReplayResult, error) {
	if s.spins == nil {
		return nil, apperrors.New(apperrors.ErrRoundNotFound, "未启用抽奖记录")
	}

	record, err := s.spins.FindByRoundID(ctx, roundID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrRoundNotFound, "回合 %s 不存在", roundID)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if record.GameType != gameType {
		return nil, apperrors.Newf(apperrors.ErrRoundNotFound, "回合 %s 不属于游戏 %s", roundID, gameType)
	}

	cfg, err := s.configVersion(ctx, record.GameType, record.ConfigVersion)
	if err != nil {
		return nil, err
	}

	u := record.RandomValue
	if record.ProvablyFair() {
		if fairness.HashServerSeed(record.ServerSeed) != record.ServerSeedHash {
			return nil, apperrors.Newf(apperrors.ErrReplayMismatch, "回合 %s 服务端种子与承诺值不符", roundID)
		}
		u = fairness.NewProvablyFairSource(record.ServerSeed, record.ClientSeed, record.Nonce).Float64()
		if u != record.RandomValue {
			return nil, apperrors.Newf(apperrors.ErrReplayMismatch, "回合 %s 种子复算随机数 %v 与记录 %v 不符", roundID, u, record.RandomValue)
		}
	}

	replayed, err := fairness.Replay(cfg, record.BetAmount, u)
	if err != nil {
		return nil, apperrors.FromEngine(err)
	}
	if replayed.OutcomeID != record.OutcomeID || replayed.PayoutAmount != record.PayoutAmount {
		return nil, apperrors.Newf(apperrors.ErrReplayMismatch,
			"回合 %s 记录结果 %s(%v) 回放结果 %s(%v)",
			roundID, record.OutcomeID, record.PayoutAmount, replayed.OutcomeID, replayed.PayoutAmount)
	}

	result := &ReplayResult{
		RoundID:  roundID,
		Verified: true,
		Recorded: record,
		Replayed: replayed,
	}
	if record.ProvablyFair() && !s.seeds.Active(record.PlayerID, record.ServerSeedHash) {
		result.ServerSeed = record.ServerSeed
	}
	return result, nil
}

// configVersion 取指定版本的配置，当前版本直接用内存快照
func (s *GameService) configVersion(ctx context.Context, gameType string, version uint64) (*fairness.GameConfig, error) {
	if cfg, ok := s.engine.Game(gameType); ok && cfg.Version == version {
		return cfg, nil
	}
	if s.configs == nil {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "配置版本 %s@%d 不存在", gameType, version)
	}

	record, err := s.configs.FindVersion(ctx, gameType, version)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrNotFound, "配置版本 %s@%d 不存在", gameType, version)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	table, err := fairness.ValidateTable(record.Outcomes)
	if err != nil {
		return nil, apperrors.FromEngine(err)
	}
	return &fairness.GameConfig{
		GameType:      record.GameType,
		Table:         table,
		TargetWinRate: record.TargetWinRate,
		Version:       record.Version,
		UpdatedAt:     record.CreatedAt,
	}, nil
}

// GameSummary 游戏列表项
type GameSummary struct {
	GameType      string    `json:"game_type"`
	Version       uint64    `json:"version"`
	TargetWinRate float64   `json:"target_win_rate"`
	Outcomes      int       `json:"outcomes"`
	ExpectedRTP   float64   `json:"expected_rtp"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Games 已配置的游戏，按类型排序
func (s *GameService) Games() []GameSummary {
	configs := s.engine.Games()
	games := make([]GameSummary, 0, len(configs))
	for _, cfg := range configs {
		g := GameSummary{
			GameType:      cfg.GameType,
			Version:       cfg.Version,
			TargetWinRate: cfg.TargetWinRate,
			Outcomes:      cfg.Table.Len(),
			UpdatedAt:     cfg.UpdatedAt,
		}
		if dist, err := cfg.Distribution(); err == nil {
			g.ExpectedRTP = dist.ExpectedMultiplier()
		}
		games = append(games, g)
	}
	return games
}

// DistributionView 有效分布预览
type DistributionView struct {
	GameType      string                `json:"game_type"`
	Version       uint64                `json:"version"`
	TargetWinRate float64               `json:"target_win_rate"`
	Entries       fairness.Distribution `json:"entries"`
	WinMass       float64               `json:"win_mass"`
	ExpectedRTP   float64               `json:"expected_rtp"`
	HouseEdge     float64               `json:"house_edge"`
}

// Distribution 当前快照的有效分布，rate 非空时按该胜率预览而不修改配置
func (s *GameService) Distribution(gameType string, rate *float64) (*DistributionView, error) {
	cfg, ok := s.engine.Game(gameType)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrGameNotFound, "游戏 %s 未配置", gameType)
	}

	target := cfg.TargetWinRate
	if rate != nil {
		target = fairness.ClampWinRate(*rate)
	}
	dist, err := fairness.Distribute(cfg.Table, target)
	if err != nil {
		return nil, apperrors.FromEngine(err)
	}

	return &DistributionView{
		GameType:      cfg.GameType,
		Version:       cfg.Version,
		TargetWinRate: target,
		Entries:       dist,
		WinMass:       dist.WinMass(),
		ExpectedRTP:   dist.ExpectedMultiplier(),
		HouseEdge:     dist.HouseEdge(),
	}, nil
}

// SimulateRequest 模拟请求
type SimulateRequest struct {
	Rounds    int     `json:"rounds"`
	BetAmount float64 `json:"bet_amount"`
	Seed      uint64  `json:"seed"`
}

// Simulate 用当前快照和固定种子批量模拟，不动账本也不写记录
func (s *GameService) Simulate(ctx context.Context, gameType string, req SimulateRequest) (*fairness.SimulationResult, error) {
	if req.Rounds <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "rounds 必须大于0")
	}
	rounds := req.Rounds
	if rounds > s.maxSimulation {
		rounds = s.maxSimulation
	}
	bet := req.BetAmount
	if bet == 0 {
		bet = 1
	}

	cfg, ok := s.engine.Game(gameType)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrGameNotFound, "游戏 %s 未配置", gameType)
	}

	result, err := fairness.Simulate(cfg, bet, rounds, fairness.NewSeededSource(req.Seed))
	if err != nil {
		return nil, apperrors.FromEngine(err)
	}
	return result, nil
}

// GameStats 实际开奖统计与理论值对比
type GameStats struct {
	*repository.SpinStatistics
	ConfigVersion   uint64  `json:"config_version"`
	TargetWinRate   float64 `json:"target_win_rate"`
	ExpectedWinRate float64 `json:"expected_win_rate"`
	ExpectedRTP     float64 `json:"expected_rtp"`
}

// Stats 统计 since 之后的开奖情况
func (s *GameService) Stats(ctx context.Context, gameType string, since time.Time) (*GameStats, error) {
	cfg, ok := s.engine.Game(gameType)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrGameNotFound, "游戏 %s 未配置", gameType)
	}

	stats := &GameStats{
		SpinStatistics: &repository.SpinStatistics{GameType: gameType, Hits: map[string]int64{}},
		ConfigVersion:  cfg.Version,
		TargetWinRate:  cfg.TargetWinRate,
	}
	if dist, err := cfg.Distribution(); err == nil {
		stats.ExpectedWinRate = dist.WinMass() * 100
		stats.ExpectedRTP = dist.ExpectedMultiplier()
	}

	if s.spins != nil {
		observed, err := s.spins.GetStatistics(ctx, gameType, since)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
		}
		stats.SpinStatistics = observed
	}
	return stats, nil
}

// History 玩家抽奖历史
func (s *GameService) History(ctx context.Context, playerID string, page, pageSize int) ([]*models.SpinRecord, *repository.Pagination, error) {
	p := repository.NewPagination(page, pageSize)
	if s.spins == nil {
		return []*models.SpinRecord{}, p, nil
	}
	records, err := s.spins.FindByPlayer(ctx, playerID, p)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return records, p, nil
}

// ConfigHistory 配置版本历史
func (s *GameService) ConfigHistory(ctx context.Context, gameType string, page, pageSize int) ([]*models.GameConfigRecord, *repository.Pagination, error) {
	p := repository.NewPagination(page, pageSize)
	if s.configs == nil {
		return []*models.GameConfigRecord{}, p, nil
	}
	records, err := s.configs.ListByGame(ctx, gameType, p)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return records, p, nil
}

// SeedCommitment 玩家当前服务端种子的哈希，抽奖前公开
func (s *GameService) SeedCommitment(playerID string) (*SeedCommitment, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "player_id 不能为空")
	}
	c, err := s.seeds.Commitment(playerID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成服务端种子失败")
	}
	return &c, nil
}

// RotateSeed 公开当前服务端种子并启用新种子
func (s *GameService) RotateSeed(playerID string) (*RevealedSeed, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "player_id 不能为空")
	}
	revealed, err := s.seeds.Rotate(playerID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "轮换服务端种子失败")
	}
	s.logger.Info("服务端种子已轮换",
		zap.String("player_id", playerID),
		zap.String("revealed_hash", revealed.ServerSeedHash),
		zap.Uint64("nonce", revealed.Nonce),
	)
	return revealed, nil
}

// Balance 玩家余额
func (s *GameService) Balance(ctx context.Context, playerID string) (float64, error) {
	b, err := s.ledger.Balance(ctx, playerID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrUnknown, "查询余额失败")
	}
	return b, nil
}
