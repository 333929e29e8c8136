package fairness

// SimulationResult 批量模拟结果
type SimulationResult struct {
	Rounds          int            `json:"rounds"`
	TotalBet        float64        `json:"total_bet"`
	TotalPayout     float64        `json:"total_payout"`
	Wins            int            `json:"wins"`
	WinRate         float64        `json:"win_rate"`          // 实际胜率 (0-100)
	ExpectedWinRate float64        `json:"expected_win_rate"` // 理论胜率 (0-100)
	RTP             float64        `json:"rtp"`
	ExpectedRTP     float64        `json:"expected_rtp"`
	MaxPayout       float64        `json:"max_payout"`
	Hits            map[string]int `json:"hits"`
}

// Simulate 用同一快照连续抽取 rounds 次，用于验证长期胜率和返还率
func Simulate(config *GameConfig, betAmount float64, rounds int, source RandomSource) (*SimulationResult, error) {
	round, err := Prepare(config, betAmount)
	if err != nil {
		return nil, err
	}

	dist := round.Distribution()
	result := &SimulationResult{
		ExpectedWinRate: dist.WinMass() * 100,
		ExpectedRTP:     dist.ExpectedMultiplier(),
		Hits:            make(map[string]int, len(dist)),
	}
	if rounds <= 0 {
		return result, nil
	}

	for i := 0; i < rounds; i++ {
		spin := round.Draw(source)
		result.TotalBet += spin.BetAmount
		result.TotalPayout += spin.PayoutAmount
		result.Hits[spin.OutcomeID]++
		if spin.IsWin {
			result.Wins++
		}
		if spin.PayoutAmount > result.MaxPayout {
			result.MaxPayout = spin.PayoutAmount
		}
	}

	result.Rounds = rounds
	result.WinRate = float64(result.Wins) / float64(rounds) * 100
	result.RTP = result.TotalPayout / result.TotalBet
	return result, nil
}
