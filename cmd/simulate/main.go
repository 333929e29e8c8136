// 离线模拟工具：按胜率和赔率表批量抽取，核对实际胜率与 RTP
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wfunc/fairness-engine/internal/config"
	"github.com/wfunc/fairness-engine/internal/game/fairness"
)

// tableFile -table 指定的 YAML 文件格式
type tableFile struct {
	TargetWinRate float64            `yaml:"target_win_rate"`
	Outcomes      []fairness.Outcome `yaml:"outcomes"`
}

type options struct {
	configPath string
	game       string
	tablePath  string
	rate       float64
	rounds     int
	bet        float64
	seed       uint64
	asJSON     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "模拟失败: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "配置文件路径，读取其中的 games")
	fs.StringVar(&opts.game, "game", fairness.GameSlots, "游戏类型")
	fs.StringVar(&opts.tablePath, "table", "", "赔率表 YAML 文件，优先于 -config")
	fs.Float64Var(&opts.rate, "rate", -1, "目标胜率 (0-100)，负数表示沿用配置")
	fs.IntVar(&opts.rounds, "rounds", 100000, "模拟回合数")
	fs.Float64Var(&opts.bet, "bet", 1, "每回合投注额")
	fs.Uint64Var(&opts.seed, "seed", 0, "随机种子，0 表示使用当前时间")
	fs.BoolVar(&opts.asJSON, "json", false, "以 JSON 输出")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}
	if opts.rate >= 0 {
		settings.TargetWinRate = opts.rate
	}

	table, err := fairness.ValidateTable(settings.Outcomes)
	if err != nil {
		return err
	}
	engine := fairness.NewEngine()
	cfg, err := engine.SetGameConfig(opts.game, table, settings.TargetWinRate)
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	result, err := fairness.Simulate(cfg, opts.bet, opts.rounds, fairness.NewSeededSource(seed))
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printResult(out, cfg, seed, result)
}

func loadSettings(opts options) (config.GameSettings, error) {
	if opts.tablePath != "" {
		raw, err := os.ReadFile(opts.tablePath)
		if err != nil {
			return config.GameSettings{}, err
		}
		var tf tableFile
		if err := yaml.Unmarshal(raw, &tf); err != nil {
			return config.GameSettings{}, fmt.Errorf("解析赔率表失败: %w", err)
		}
		return config.GameSettings{TargetWinRate: tf.TargetWinRate, Outcomes: tf.Outcomes}, nil
	}

	games := config.DefaultGames()
	if opts.configPath != "" {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return config.GameSettings{}, err
		}
		games = cfg.Games
	}

	settings, ok := games[opts.game]
	if !ok {
		return config.GameSettings{}, fmt.Errorf("游戏未配置: %s", opts.game)
	}
	return settings, nil
}

func printResult(out io.Writer, cfg *fairness.GameConfig, seed uint64, r *fairness.SimulationResult) error {
	dist, err := cfg.Distribution()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "游戏: %s  目标胜率: %.2f%%  种子: %d\n", cfg.GameType, cfg.TargetWinRate, seed)
	fmt.Fprintf(out, "回合: %d  总投注: %.2f  总派彩: %.2f\n", r.Rounds, r.TotalBet, r.TotalPayout)
	fmt.Fprintf(out, "胜率: %.4f%% (理论 %.4f%%)\n", r.WinRate, r.ExpectedWinRate)
	fmt.Fprintf(out, "RTP: %.4f (理论 %.4f)  最大派彩: %.2f\n", r.RTP, r.ExpectedRTP, r.MaxPayout)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-12s %10s %12s %12s\n", "结果", "倍率", "理论概率", "实际频率")

	ids := make([]string, 0, len(dist))
	expected := make(map[string]fairness.Entry, len(dist))
	for _, e := range dist {
		ids = append(ids, e.Outcome.ID)
		expected[e.Outcome.ID] = e
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return expected[ids[i]].Outcome.Multiplier < expected[ids[j]].Outcome.Multiplier
	})

	for _, id := range ids {
		e := expected[id]
		freq := 0.0
		if r.Rounds > 0 {
			freq = float64(r.Hits[id]) / float64(r.Rounds)
		}
		fmt.Fprintf(out, "%-12s %10.2f %12.6f %12.6f\n", id, e.Outcome.Multiplier, e.Probability, freq)
	}
	return nil
}
