package fairness

// 内置游戏类型
const (
	GameSlots = "slots"
	GameWheel = "wheel"
	GameFruit = "fruit"
)

// DefaultGame 内置游戏的默认配置
type DefaultGame struct {
	TargetWinRate float64
	Outcomes      []Outcome
}

// DefaultGames 内置游戏默认赔率表，运营未配置时使用
func DefaultGames() map[string]DefaultGame {
	return map[string]DefaultGame{
		GameSlots: {
			TargetWinRate: 30,
			Outcomes: []Outcome{
				{ID: "miss", Label: "未中奖", Weight: 70, Multiplier: 0},
				{ID: "cherry", Label: "樱桃", Weight: 18, Multiplier: 1.2},
				{ID: "bell", Label: "铃铛", Weight: 8, Multiplier: 2},
				{ID: "bar", Label: "BAR", Weight: 3, Multiplier: 5},
				{ID: "seven", Label: "777", Weight: 1, Multiplier: 20},
			},
		},
		GameWheel: {
			TargetWinRate: 35,
			Outcomes: []Outcome{
				{ID: "empty", Label: "谢谢参与", Weight: 65, Multiplier: 0},
				{ID: "small", Label: "1.5倍", Weight: 25, Multiplier: 1.5},
				{ID: "medium", Label: "3倍", Weight: 8, Multiplier: 3},
				{ID: "jackpot", Label: "10倍", Weight: 2, Multiplier: 10},
			},
		},
		GameFruit: {
			TargetWinRate: 40,
			Outcomes: []Outcome{
				{ID: "rotten", Label: "坏水果", Weight: 60, Multiplier: 0},
				{ID: "apple", Label: "苹果", Weight: 20, Multiplier: 1.1},
				{ID: "orange", Label: "橙子", Weight: 12, Multiplier: 1.5},
				{ID: "watermelon", Label: "西瓜", Weight: 6, Multiplier: 3},
				{ID: "golden", Label: "金苹果", Weight: 2, Multiplier: 10},
			},
		},
	}
}
