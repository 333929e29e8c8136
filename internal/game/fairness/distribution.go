package fairness

import "math"

// NormalizationTolerance 概率总和允许的浮点误差
const NormalizationTolerance = 1e-9

// Entry 有效分布中的一项
type Entry struct {
	Outcome     Outcome `json:"outcome"`
	Probability float64 `json:"probability"`
}

// Distribution 按赔率表顺序排列的有效概率分布
type Distribution []Entry

// ClampWinRate 将胜率限制在 [0, 100]，NaN 视为 0
func ClampWinRate(rate float64) float64 {
	switch {
	case math.IsNaN(rate), rate < 0:
		return 0
	case rate > 100:
		return 100
	default:
		return rate
	}
}

// Distribute 根据目标胜率计算有效分布
//
// 中奖类别总概率为 targetWinRate/100，未中奖类别为剩余部分，
// 类别内部按权重比例分配。每次抽取都重新计算，不做缓存。
func Distribute(table *OutcomeTable, targetWinRate float64) (Distribution, error) {
	if table.Len() == 0 {
		return nil, newConfigError(RuleEmptyTable, -1, "", "")
	}

	pWin := ClampWinRate(targetWinRate) / 100
	pLose := 1 - pWin

	var winWeight, loseWeight float64
	for _, o := range table.outcomes {
		if o.IsWin() {
			winWeight += o.Weight
		} else {
			loseWeight += o.Weight
		}
	}
	if pWin > 0 && !(winWeight > 0) {
		return nil, newConfigError(RuleEmptyClassMass, -1, "", "win")
	}
	if pLose > 0 && !(loseWeight > 0) {
		return nil, newConfigError(RuleEmptyClassMass, -1, "", "lose")
	}

	dist := make(Distribution, len(table.outcomes))
	var sum float64
	for i, o := range table.outcomes {
		var p float64
		if o.IsWin() {
			if pWin > 0 {
				p = pWin * (o.Weight / winWeight)
			}
		} else if pLose > 0 {
			p = pLose * (o.Weight / loseWeight)
		}
		dist[i] = Entry{Outcome: o, Probability: p}
		sum += p
	}

	// 累计舍入误差超出容差时整体归一化
	if sum > 0 && math.Abs(sum-1) > NormalizationTolerance {
		for i := range dist {
			dist[i].Probability /= sum
		}
	}

	return dist, nil
}

// Sum 概率总和
func (d Distribution) Sum() float64 {
	var s float64
	for _, e := range d {
		s += e.Probability
	}
	return s
}

// WinMass 中奖类别的总概率
func (d Distribution) WinMass() float64 {
	var s float64
	for _, e := range d {
		if e.Outcome.IsWin() {
			s += e.Probability
		}
	}
	return s
}

// ExpectedMultiplier 理论返还率（每单位下注的期望赔付）
func (d Distribution) ExpectedMultiplier() float64 {
	var s float64
	for _, e := range d {
		s += e.Probability * e.Outcome.Multiplier
	}
	return s
}

// HouseEdge 庄家优势，负值表示玩家长期占优
func (d Distribution) HouseEdge() float64 {
	return 1 - d.ExpectedMultiplier()
}

// Probability 根据结果ID获取有效概率
func (d Distribution) Probability(id string) float64 {
	for _, e := range d {
		if e.Outcome.ID == id {
			return e.Probability
		}
	}
	return 0
}
