package fairness

import (
	"encoding/json"
	"fmt"
	"math"
)

// Outcome 一次抽取可能出现的结果
type Outcome struct {
	ID         string  `json:"id" yaml:"id" mapstructure:"id"`
	Label      string  `json:"label" yaml:"label" mapstructure:"label"`
	Weight     float64 `json:"weight" yaml:"weight" mapstructure:"weight"`             // 类别内的相对权重
	Multiplier float64 `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"` // 赔付倍率，0 表示未中奖
}

// IsWin 倍率大于0即为中奖类别
func (o Outcome) IsWin() bool {
	return o.Multiplier > 0
}

// OutcomeTable 已校验的有序赔率表，创建后不可修改
type OutcomeTable struct {
	outcomes []Outcome
}

// ValidateTable 校验赔率表，按顺序检查规则并在第一条违反的规则处返回 *ConfigError
func ValidateTable(outcomes []Outcome) (*OutcomeTable, error) {
	if len(outcomes) == 0 {
		return nil, newConfigError(RuleEmptyTable, -1, "", "")
	}

	for i, o := range outcomes {
		if !(o.Weight > 0) || math.IsInf(o.Weight, 1) {
			return nil, newConfigError(RuleInvalidWeight, i, o.ID, fmt.Sprintf("weight=%v", o.Weight))
		}
	}

	for i, o := range outcomes {
		if !(o.Multiplier >= 0) || math.IsInf(o.Multiplier, 1) {
			return nil, newConfigError(RuleInvalidMultiplier, i, o.ID, fmt.Sprintf("multiplier=%v", o.Multiplier))
		}
	}

	wins, loses := 0, 0
	for _, o := range outcomes {
		if o.IsWin() {
			wins++
		} else {
			loses++
		}
	}
	if loses == 0 {
		return nil, newConfigError(RuleMissingLoseClass, -1, "", "")
	}
	if wins == 0 {
		return nil, newConfigError(RuleMissingWinClass, -1, "", "")
	}

	seen := make(map[string]int, len(outcomes))
	for i, o := range outcomes {
		if first, ok := seen[o.ID]; ok {
			return nil, newConfigError(RuleDuplicateID, i, o.ID, fmt.Sprintf("与下标 %d 重复", first))
		}
		seen[o.ID] = i
	}

	table := &OutcomeTable{outcomes: make([]Outcome, len(outcomes))}
	copy(table.outcomes, outcomes)
	return table, nil
}

// MustValidateTable 校验失败时panic，仅用于内置默认表和测试
func MustValidateTable(outcomes []Outcome) *OutcomeTable {
	table, err := ValidateTable(outcomes)
	if err != nil {
		panic(err)
	}
	return table
}

// Len 结果数量
func (t *OutcomeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.outcomes)
}

// At 按下标获取结果
func (t *OutcomeTable) At(i int) Outcome {
	return t.outcomes[i]
}

// Outcomes 返回结果副本
func (t *OutcomeTable) Outcomes() []Outcome {
	if t == nil {
		return nil
	}
	out := make([]Outcome, len(t.outcomes))
	copy(out, t.outcomes)
	return out
}

// Find 根据ID查找结果
func (t *OutcomeTable) Find(id string) (Outcome, bool) {
	if t == nil {
		return Outcome{}, false
	}
	for _, o := range t.outcomes {
		if o.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// MarshalJSON 序列化为结果数组
func (t *OutcomeTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Outcomes())
}
