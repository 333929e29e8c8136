package fairness

// SampleIndex 逆累积分布抽样
//
// 按赔率表顺序累加概率，返回第一个累计值严格大于 u 的下标。
// u < 0 按 0 处理；u >= 1、NaN 或浮点累加不足时回退。
// 回退规则：取表中最后一个有效概率大于0的结果，概率为0的结果永远不会被抽中。
// 分布为空时返回 -1。
func SampleIndex(dist Distribution, u float64) int {
	if len(dist) == 0 {
		return -1
	}
	if u < 0 {
		u = 0
	}

	if u < 1 {
		var cumulative float64
		for i, e := range dist {
			cumulative += e.Probability
			if cumulative > u {
				return i
			}
		}
	}

	return fallbackIndex(dist)
}

// Sample 抽取一个结果，dist 必须非空
func Sample(dist Distribution, u float64) Entry {
	return dist[SampleIndex(dist, u)]
}

func fallbackIndex(dist Distribution) int {
	for i := len(dist) - 1; i >= 0; i-- {
		if dist[i].Probability > 0 {
			return i
		}
	}
	return len(dist) - 1
}
