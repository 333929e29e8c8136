package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/fairness-engine/internal/config"
	apperrors "github.com/wfunc/fairness-engine/internal/errors"
	"github.com/wfunc/fairness-engine/internal/game/fairness"
	"github.com/wfunc/fairness-engine/internal/models"
	"github.com/wfunc/fairness-engine/internal/repository"
)

type recordedEvent struct {
	Type string
	Data interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (p *fakePublisher) byType(eventType string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// flakyLedger 派彩可按次数失败的账本
type flakyLedger struct {
	*MemoryLedger
	mu          sync.Mutex
	failCredits int // 接下来失败的派彩次数，-1 表示一直失败
}

func (l *flakyLedger) Credit(ctx context.Context, playerID string, amount float64) (float64, error) {
	l.mu.Lock()
	fail := l.failCredits != 0
	if l.failCredits > 0 {
		l.failCredits--
	}
	l.mu.Unlock()
	if fail {
		return 0, stderrors.New("钱包服务不可用")
	}
	return l.MemoryLedger.Credit(ctx, playerID, amount)
}

func wheelOutcomes() []fairness.Outcome {
	return []fairness.Outcome{
		{ID: "lose", Label: "未中奖", Weight: 65, Multiplier: 0},
		{ID: "win", Label: "中奖", Weight: 35, Multiplier: 2},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// GameServiceTestSuite 游戏服务测试套件
type GameServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	engine    *fairness.Engine
	ledger    *MemoryLedger
	publisher *fakePublisher
	source    *fairness.SequenceSource
	repos     *repository.Manager
	service   *GameService
}

func (suite *GameServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = repository.TestDB(suite.T())
	suite.repos = repository.NewManager(suite.db)
	suite.engine = fairness.NewEngine()
	suite.ledger = NewMemoryLedger(1000)
	suite.publisher = &fakePublisher{}
	suite.source = fairness.NewSequenceSource(0.9, 0.1)
	suite.service = suite.newService(suite.engine)

	_, err := suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel,
		UpdateConfigRequest{TargetWinRate: floatPtr(35), Outcomes: wheelOutcomes()}, SourceAPI)
	suite.Require().NoError(err)
}

func (suite *GameServiceTestSuite) newService(engine *fairness.Engine) *GameService {
	return suite.newServiceWithLedger(engine, suite.ledger)
}

func (suite *GameServiceTestSuite) newServiceWithLedger(engine *fairness.Engine, ledger Ledger) *GameService {
	return NewGameService(engine, ledger, Options{
		Configs:       suite.repos.GameConfig(),
		Spins:         suite.repos.SpinRecord(),
		Publisher:     suite.publisher,
		Wallet:        config.WalletConfig{MinBet: 1, MaxBet: 500},
		MaxSimulation: 5000,
		Source:        suite.source,
		Logger:        zap.NewNop(),
	})
}

func (suite *GameServiceTestSuite) TestSpin_WinAndLose() {
	resp, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.Require().NoError(err)
	suite.Equal("win", resp.OutcomeID)
	suite.True(resp.IsWin)
	suite.Equal(20.0, resp.PayoutAmount)
	suite.Equal(1010.0, resp.Balance)
	suite.Equal(0.9, resp.RandomValue)
	suite.Equal(uint64(1), resp.ConfigVersion)
	suite.NotEmpty(resp.RoundID)

	resp, err = suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.Require().NoError(err)
	suite.Equal("lose", resp.OutcomeID)
	suite.False(resp.IsWin)
	suite.Zero(resp.PayoutAmount)
	suite.Equal(1000.0, resp.Balance)

	// 每次下注都落审计记录
	record, err := suite.repos.SpinRecord().FindByRoundID(suite.ctx, resp.RoundID)
	suite.Require().NoError(err)
	suite.Equal("p1", record.PlayerID)
	suite.Equal("lose", record.OutcomeID)
	suite.Equal(0.1, record.RandomValue)
	suite.Equal(1000.0, record.BalanceAfter)
	suite.False(record.ProvablyFair())

	suite.Len(suite.publisher.byType(EventSpinResult), 2)
}

func (suite *GameServiceTestSuite) TestSpin_RejectedWithoutSideEffects() {
	tests := []struct {
		name string
		req  SpinRequest
		code apperrors.ErrorCode
	}{
		{"零下注", SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 0}, apperrors.ErrInvalidBet},
		{"负下注", SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: -5}, apperrors.ErrInvalidBet},
		{"低于最小下注", SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 0.5}, apperrors.ErrInvalidBet},
		{"超过最大下注", SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 501}, apperrors.ErrInvalidBet},
		{"未知游戏", SpinRequest{PlayerID: "p1", GameType: "poker", BetAmount: 10}, apperrors.ErrGameNotFound},
		{"缺少玩家", SpinRequest{GameType: fairness.GameWheel, BetAmount: 10}, apperrors.ErrInvalidParam},
		{"余额不足", SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 400}, apperrors.ErrInsufficientCoins},
	}

	// 先把余额压到 300
	_, err := suite.ledger.Debit(suite.ctx, "p1", 700)
	suite.Require().NoError(err)

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.Spin(suite.ctx, tt.req)
			suite.True(apperrors.Is(err, tt.code), "got %v", err)
		})
	}

	suite.Zero(suite.source.Consumed())
	b, _ := suite.ledger.Balance(suite.ctx, "p1")
	suite.Equal(300.0, b)

	records, p, err := suite.service.History(suite.ctx, "p1", 1, 10)
	suite.Require().NoError(err)
	suite.Empty(records)
	suite.Zero(p.Total)
	suite.Empty(suite.publisher.byType(EventSpinResult))
}

func (suite *GameServiceTestSuite) TestSpin_RateChangeAppliesToNextSpin() {
	suite.source = fairness.NewSequenceSource(0.5)
	suite.service = suite.newService(suite.engine)

	resp, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.Require().NoError(err)
	suite.Equal("lose", resp.OutcomeID)

	_, err = suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{TargetWinRate: floatPtr(100)}, SourceAPI)
	suite.Require().NoError(err)

	resp, err = suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.Require().NoError(err)
	suite.Equal("win", resp.OutcomeID)
	suite.Equal(uint64(2), resp.ConfigVersion)
}

func (suite *GameServiceTestSuite) TestSpin_ProvablyFairReplay() {
	// 抽奖前先拿到服务端种子的承诺值
	commitment, err := suite.service.SeedCommitment("p1")
	suite.Require().NoError(err)
	suite.Len(commitment.ServerSeedHash, 64)
	suite.Zero(commitment.Nonce)

	resp, err := suite.service.Spin(suite.ctx, SpinRequest{
		PlayerID:   "p1",
		GameType:   fairness.GameWheel,
		BetAmount:  10,
		ClientSeed: "lucky",
	})
	suite.Require().NoError(err)
	suite.Equal(commitment.ServerSeedHash, resp.ServerSeedHash)
	suite.Equal("lucky", resp.ClientSeed)
	suite.Equal(uint64(1), resp.Nonce)
	// 不消耗默认随机源
	suite.Zero(suite.source.Consumed())

	next, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10, ClientSeed: "lucky"})
	suite.Require().NoError(err)
	suite.Equal(uint64(2), next.Nonce)
	suite.Equal(commitment.ServerSeedHash, next.ServerSeedHash)

	after, err := suite.service.SeedCommitment("p1")
	suite.Require().NoError(err)
	suite.Equal(uint64(2), after.Nonce)

	// 种子仍在使用时回放只校验不公开
	replay, err := suite.service.Replay(suite.ctx, fairness.GameWheel, resp.RoundID)
	suite.Require().NoError(err)
	suite.True(replay.Verified)
	suite.Equal(resp.OutcomeID, replay.Replayed.OutcomeID)
	suite.Empty(replay.ServerSeed)

	revealed, err := suite.service.RotateSeed("p1")
	suite.Require().NoError(err)
	suite.Equal(commitment.ServerSeedHash, revealed.ServerSeedHash)
	suite.Equal(commitment.ServerSeedHash, fairness.HashServerSeed(revealed.ServerSeed))
	suite.Equal(uint64(2), revealed.Nonce)
	suite.NotEqual(commitment.ServerSeedHash, revealed.Next.ServerSeedHash)

	// 轮换后玩家可以用公开的种子自行复算每一回合
	replay, err = suite.service.Replay(suite.ctx, fairness.GameWheel, resp.RoundID)
	suite.Require().NoError(err)
	suite.Equal(revealed.ServerSeed, replay.ServerSeed)
	suite.Equal(resp.RandomValue, fairness.NewProvablyFairSource(revealed.ServerSeed, "lucky", 1).Float64())
	suite.Equal(next.RandomValue, fairness.NewProvablyFairSource(revealed.ServerSeed, "lucky", 2).Float64())

	fresh, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10, ClientSeed: "lucky"})
	suite.Require().NoError(err)
	suite.Equal(revealed.Next.ServerSeedHash, fresh.ServerSeedHash)
	suite.Equal(uint64(1), fresh.Nonce)

	_, err = suite.service.SeedCommitment(" ")
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))
	_, err = suite.service.RotateSeed("")
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))
}

func (suite *GameServiceTestSuite) TestSpin_CreditFailureRefundsBet() {
	tests := []struct {
		name        string
		failCredits int
		balance     float64
		details     string
	}{
		{"派彩失败后退还投注", 1, 1000, "钱包服务不可用"},
		{"退还也失败时提示对账", -1, 990, "人工对账"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.source = fairness.NewSequenceSource(0.9)
			ledger := &flakyLedger{MemoryLedger: NewMemoryLedger(1000), failCredits: tt.failCredits}
			svc := suite.newServiceWithLedger(suite.engine, ledger)
			player := "credit-" + fmt.Sprint(tt.failCredits)

			resp, err := svc.Spin(suite.ctx, SpinRequest{PlayerID: player, GameType: fairness.GameWheel, BetAmount: 10})
			suite.Nil(resp)
			suite.Require().Error(err)
			suite.True(apperrors.Is(err, apperrors.ErrSettlementFailed), "got %v", err)
			suite.Contains(err.Error(), tt.details)

			b, _ := ledger.Balance(suite.ctx, player)
			suite.Equal(tt.balance, b)

			records, _, err := svc.History(suite.ctx, player, 1, 10)
			suite.Require().NoError(err)
			suite.Empty(records)
		})
	}
	suite.Empty(suite.publisher.byType(EventSpinResult))
}

func (suite *GameServiceTestSuite) TestSpin_EntropyFailureRefundsBet() {
	svc := NewGameService(suite.engine, suite.ledger, Options{
		Spins:     suite.repos.SpinRecord(),
		Publisher: suite.publisher,
		Source: fairness.RandomFunc(func() float64 {
			panic(fmt.Errorf("%w: 读取失败", fairness.ErrEntropyUnavailable))
		}),
		Logger: zap.NewNop(),
	})

	_, err := svc.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.True(apperrors.Is(err, apperrors.ErrSettlementFailed))
	suite.ErrorIs(err, fairness.ErrEntropyUnavailable)

	b, _ := suite.ledger.Balance(suite.ctx, "p1")
	suite.Equal(1000.0, b)
	suite.Empty(suite.publisher.byType(EventSpinResult))

	// 其他 panic 不吞掉
	broken := NewGameService(suite.engine, suite.ledger, Options{
		Source: fairness.RandomFunc(func() float64 { panic("boom") }),
		Logger: zap.NewNop(),
	})
	suite.Panics(func() {
		_, _ = broken.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	})
}

func (suite *GameServiceTestSuite) TestReplay_UsesRecordedConfigVersion() {
	resp, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.Require().NoError(err)
	suite.Equal("win", resp.OutcomeID)

	// 新版本下 0.9 会落在未中奖区间
	_, err = suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{TargetWinRate: floatPtr(5)}, SourceAPI)
	suite.Require().NoError(err)

	replay, err := suite.service.Replay(suite.ctx, fairness.GameWheel, resp.RoundID)
	suite.Require().NoError(err)
	suite.Equal("win", replay.Replayed.OutcomeID)
	suite.Equal(uint64(1), replay.Replayed.ConfigVersion)
}

func (suite *GameServiceTestSuite) TestReplay_Errors() {
	_, err := suite.service.Replay(suite.ctx, fairness.GameWheel, "missing")
	suite.True(apperrors.Is(err, apperrors.ErrRoundNotFound))

	resp, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
	suite.Require().NoError(err)

	_, err = suite.service.Replay(suite.ctx, fairness.GameSlots, resp.RoundID)
	suite.True(apperrors.Is(err, apperrors.ErrRoundNotFound))

	// 篡改记录后回放不一致
	suite.Require().NoError(suite.db.Model(&models.SpinRecord{}).
		Where("round_id = ?", resp.RoundID).
		Update("outcome_id", "lose").Error)
	_, err = suite.service.Replay(suite.ctx, fairness.GameWheel, resp.RoundID)
	suite.True(apperrors.Is(err, apperrors.ErrReplayMismatch))
}

func (suite *GameServiceTestSuite) TestUpdateGameConfig() {
	cfg, err := suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{TargetWinRate: floatPtr(150)}, SourceAPI)
	suite.Require().NoError(err)
	suite.Equal(100.0, cfg.TargetWinRate)
	suite.Equal(uint64(2), cfg.Version)
	suite.Equal(2, cfg.Table.Len())

	record, err := suite.repos.GameConfig().Latest(suite.ctx, fairness.GameWheel)
	suite.Require().NoError(err)
	suite.Equal(uint64(2), record.Version)
	suite.Equal(100.0, record.TargetWinRate)
	suite.Equal(SourceAPI, record.Source)

	events := suite.publisher.byType(EventConfigUpdated)
	suite.Require().Len(events, 2)
	suite.Equal(uint64(2), events[1].Data.(ConfigUpdatedEvent).Version)

	// 无效赔率表不替换当前快照
	_, err = suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{
		TargetWinRate: floatPtr(10),
		Outcomes:      []fairness.Outcome{{ID: "only", Weight: 1, Multiplier: 2}},
	}, SourceAPI)
	suite.True(apperrors.Is(err, apperrors.ErrConfigValidate))
	live, _ := suite.engine.Game(fairness.GameWheel)
	suite.Equal(uint64(2), live.Version)

	// 新游戏必须给出胜率
	_, err = suite.service.UpdateGameConfig(suite.ctx, "dice", UpdateConfigRequest{Outcomes: wheelOutcomes()}, SourceAPI)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))

	// 新游戏必须给出赔率表
	_, err = suite.service.UpdateGameConfig(suite.ctx, "dice", UpdateConfigRequest{TargetWinRate: floatPtr(10)}, SourceAPI)
	suite.True(apperrors.Is(err, apperrors.ErrConfigValidate))
}

func (suite *GameServiceTestSuite) TestRestoreAndLoadGames() {
	_, err := suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{TargetWinRate: floatPtr(12)}, SourceAPI)
	suite.Require().NoError(err)

	// 模拟重启：新引擎从数据库恢复，再加载配置文件
	engine := fairness.NewEngine()
	restarted := suite.newService(engine)

	n, err := restarted.Restore(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(1, n)

	suite.Require().NoError(restarted.LoadGames(suite.ctx, config.DefaultGames()))

	wheel, ok := engine.Game(fairness.GameWheel)
	suite.Require().True(ok)
	suite.Equal(uint64(2), wheel.Version)
	suite.Equal(12.0, wheel.TargetWinRate)
	suite.Equal(2, wheel.Table.Len())

	slots, ok := engine.Game(fairness.GameSlots)
	suite.Require().True(ok)
	suite.Equal(uint64(1), slots.Version)

	games := restarted.Games()
	suite.Require().Len(games, 3)
	suite.Equal(fairness.GameFruit, games[0].GameType)

	// 恢复后的版本继续递增
	cfg, err := restarted.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{TargetWinRate: floatPtr(20)}, SourceAPI)
	suite.Require().NoError(err)
	suite.Equal(uint64(3), cfg.Version)
}

func (suite *GameServiceTestSuite) TestReloadGames() {
	games := map[string]config.GameSettings{
		fairness.GameWheel: {TargetWinRate: 35, Outcomes: wheelOutcomes()},
		fairness.GameSlots: {TargetWinRate: 30, Outcomes: []fairness.Outcome{{ID: "only", Weight: 1, Multiplier: 2}}},
		fairness.GameFruit: {TargetWinRate: 40, Outcomes: wheelOutcomes()},
	}

	// wheel 未变化，slots 无效，只有 fruit 生效
	changed := suite.service.ReloadGames(suite.ctx, games)
	suite.Equal([]string{fairness.GameFruit}, changed)

	wheel, _ := suite.engine.Game(fairness.GameWheel)
	suite.Equal(uint64(1), wheel.Version)
	_, ok := suite.engine.Game(fairness.GameSlots)
	suite.False(ok)

	games[fairness.GameWheel] = config.GameSettings{TargetWinRate: 50, Outcomes: wheelOutcomes()}
	changed = suite.service.ReloadGames(suite.ctx, games)
	suite.Equal([]string{fairness.GameWheel}, changed)
	wheel, _ = suite.engine.Game(fairness.GameWheel)
	suite.Equal(50.0, wheel.TargetWinRate)
}

func (suite *GameServiceTestSuite) TestDistribution() {
	view, err := suite.service.Distribution(fairness.GameWheel, nil)
	suite.Require().NoError(err)
	suite.Equal(35.0, view.TargetWinRate)
	suite.Require().Len(view.Entries, 2)
	suite.InDelta(0.65, view.Entries[0].Probability, 1e-12)
	suite.InDelta(0.35, view.WinMass, 1e-12)
	suite.InDelta(0.7, view.ExpectedRTP, 1e-12)
	suite.InDelta(0.3, view.HouseEdge, 1e-12)

	// 预览其他胜率不修改配置
	view, err = suite.service.Distribution(fairness.GameWheel, floatPtr(10))
	suite.Require().NoError(err)
	suite.InDelta(0.1, view.WinMass, 1e-12)
	live, _ := suite.engine.Game(fairness.GameWheel)
	suite.Equal(35.0, live.TargetWinRate)

	_, err = suite.service.Distribution("poker", nil)
	suite.True(apperrors.Is(err, apperrors.ErrGameNotFound))
}

func (suite *GameServiceTestSuite) TestSimulate() {
	a, err := suite.service.Simulate(suite.ctx, fairness.GameWheel, SimulateRequest{Rounds: 100000, BetAmount: 2, Seed: 7})
	suite.Require().NoError(err)
	suite.Equal(5000, a.Rounds)
	suite.Equal(10000.0, a.TotalBet)

	b, err := suite.service.Simulate(suite.ctx, fairness.GameWheel, SimulateRequest{Rounds: 100000, BetAmount: 2, Seed: 7})
	suite.Require().NoError(err)
	suite.Equal(a.Hits, b.Hits)

	// 模拟不动账本和记录
	bal, _ := suite.ledger.Balance(suite.ctx, "p1")
	suite.Equal(1000.0, bal)

	_, err = suite.service.Simulate(suite.ctx, fairness.GameWheel, SimulateRequest{Rounds: 0})
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))
	_, err = suite.service.Simulate(suite.ctx, "poker", SimulateRequest{Rounds: 10})
	suite.True(apperrors.Is(err, apperrors.ErrGameNotFound))
	_, err = suite.service.Simulate(suite.ctx, fairness.GameWheel, SimulateRequest{Rounds: 10, BetAmount: -1})
	suite.True(apperrors.Is(err, apperrors.ErrInvalidBet))
}

func (suite *GameServiceTestSuite) TestStatsAndHistory() {
	for i := 0; i < 4; i++ {
		_, err := suite.service.Spin(suite.ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameWheel, BetAmount: 10})
		suite.Require().NoError(err)
	}

	stats, err := suite.service.Stats(suite.ctx, fairness.GameWheel, time.Time{})
	suite.Require().NoError(err)
	suite.Equal(int64(4), stats.TotalRounds)
	suite.Equal(int64(2), stats.WinRounds)
	suite.InDelta(50.0, stats.WinRate, 1e-9)
	suite.InDelta(1.0, stats.RTP, 1e-9)
	suite.InDelta(35.0, stats.ExpectedWinRate, 1e-9)
	suite.InDelta(0.7, stats.ExpectedRTP, 1e-9)
	suite.Equal(int64(2), stats.Hits["win"])

	records, p, err := suite.service.History(suite.ctx, "p1", 1, 3)
	suite.Require().NoError(err)
	suite.Len(records, 3)
	suite.Equal(int64(4), p.Total)

	history, hp, err := suite.service.ConfigHistory(suite.ctx, fairness.GameWheel, 1, 10)
	suite.Require().NoError(err)
	suite.Len(history, 1)
	suite.Equal(int64(1), hp.Total)

	_, err = suite.service.Stats(suite.ctx, "poker", time.Time{})
	suite.True(apperrors.Is(err, apperrors.ErrGameNotFound))
}

func (suite *GameServiceTestSuite) TestUpdateGameConfig_ConcurrentRateAndTable() {
	swapped := []fairness.Outcome{
		{ID: "miss", Label: "未中奖", Weight: 1, Multiplier: 0},
		{ID: "hit", Label: "中奖", Weight: 1, Multiplier: 1.5},
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		swapErr   error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			successes++
			return
		}
		suite.True(apperrors.Is(err, apperrors.ErrConfigConflict), "got %v", err)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(rate float64) {
			defer wg.Done()
			_, err := suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{TargetWinRate: floatPtr(rate)}, SourceAPI)
			record(err)
		}(float64(10 * (i + 1)))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := suite.service.UpdateGameConfig(suite.ctx, fairness.GameWheel, UpdateConfigRequest{Outcomes: swapped}, SourceAPI)
		mu.Lock()
		swapErr = err
		mu.Unlock()
		record(err)
	}()
	wg.Wait()

	cfg, ok := suite.engine.Game(fairness.GameWheel)
	suite.Require().True(ok)
	suite.Equal(uint64(1+successes), cfg.Version, "每次成功写入只产生一个版本")
	if swapErr == nil {
		// 只改胜率的写入不会把新赔率表覆盖回旧表
		_, found := cfg.Table.Find("hit")
		suite.True(found)
	}

	// 显式传入赔率表但新游戏缺少胜率
	_, err := suite.service.UpdateGameConfig(suite.ctx, "dice", UpdateConfigRequest{Outcomes: swapped}, SourceAPI)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))
	_, err = suite.service.UpdateGameConfig(suite.ctx, "dice", UpdateConfigRequest{TargetWinRate: floatPtr(10)}, SourceAPI)
	suite.True(apperrors.Is(err, apperrors.ErrConfigValidate))
}

func TestGameServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

func TestGameService_WithoutPersistence(t *testing.T) {
	ctx := context.Background()
	engine := fairness.NewEngine()
	svc := NewGameService(engine, NewMemoryLedger(100), Options{Logger: zap.NewNop()})

	require.NoError(t, svc.LoadGames(ctx, config.DefaultGames()))

	resp, err := svc.Spin(ctx, SpinRequest{PlayerID: "p1", GameType: fairness.GameFruit, BetAmount: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.RandomValue, 0.0)
	assert.Less(t, resp.RandomValue, 1.0)

	_, err = svc.Replay(ctx, fairness.GameFruit, resp.RoundID)
	assert.True(t, apperrors.Is(err, apperrors.ErrRoundNotFound))

	n, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := svc.Stats(ctx, fairness.GameFruit, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRounds)
	assert.InDelta(t, 40.0, stats.ExpectedWinRate, 1e-9)
}
