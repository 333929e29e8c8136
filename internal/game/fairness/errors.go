package fairness

import (
	"errors"
	"fmt"
)

// Rule 配置校验规则
type Rule string

const (
	RuleEmptyTable        Rule = "empty_table"        // 赔率表为空
	RuleInvalidWeight     Rule = "invalid_weight"     // 权重必须为有限正数
	RuleInvalidMultiplier Rule = "invalid_multiplier" // 倍率必须为有限非负数
	RuleMissingLoseClass  Rule = "missing_lose_class" // 缺少未中奖结果
	RuleMissingWinClass   Rule = "missing_win_class"  // 缺少中奖结果
	RuleDuplicateID       Rule = "duplicate_id"       // 结果ID重复
	RuleEmptyClassMass    Rule = "empty_class_mass"   // 目标概率无法分配
	RuleInvalidWinRate    Rule = "invalid_win_rate"   // 胜率不是数字
	RuleInvalidGameType   Rule = "invalid_game_type"  // 游戏类型为空
)

var ruleMessages = map[Rule]string{
	RuleEmptyTable:        "赔率表为空",
	RuleInvalidWeight:     "权重必须为有限正数",
	RuleInvalidMultiplier: "倍率必须为有限非负数",
	RuleMissingLoseClass:  "赔率表缺少未中奖结果",
	RuleMissingWinClass:   "赔率表缺少中奖结果",
	RuleDuplicateID:       "结果ID重复",
	RuleEmptyClassMass:    "目标概率无法分配到空的结果类别",
	RuleInvalidWinRate:    "胜率不是有效数字",
	RuleInvalidGameType:   "游戏类型不能为空",
}

// ErrVersionConflict 配置快照已被并发修改
var ErrVersionConflict = errors.New("配置版本冲突")

// ConfigError 赔率表或胜率配置错误，由运营修正配置后恢复
type ConfigError struct {
	Rule      Rule   `json:"rule"`
	Index     int    `json:"index"` // 出错结果的下标，-1 表示与单个结果无关
	OutcomeID string `json:"outcome_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func newConfigError(rule Rule, index int, outcomeID, detail string) *ConfigError {
	return &ConfigError{Rule: rule, Index: index, OutcomeID: outcomeID, Detail: detail}
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("配置错误[%s]: %s", e.Rule, ruleMessages[e.Rule])
	if e.Index >= 0 {
		msg += fmt.Sprintf(" (下标 %d", e.Index)
		if e.OutcomeID != "" {
			msg += fmt.Sprintf(", id=%q", e.OutcomeID)
		}
		msg += ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// IsConfigError 判断错误链中是否包含指定规则的配置错误，rule 为空时匹配任意规则
func IsConfigError(err error, rule Rule) bool {
	var ce *ConfigError
	if !errors.As(err, &ce) {
		return false
	}
	return rule == "" || ce.Rule == rule
}

// SpinReason 旋转失败原因
type SpinReason string

const (
	ReasonInvalidBet  SpinReason = "invalid_bet"
	ReasonUnknownGame SpinReason = "unknown_game"
	ReasonConfig      SpinReason = "config"
)

// SpinError 旋转失败，失败时不消耗随机数也不产生结果
type SpinError struct {
	Reason    SpinReason
	GameType  string
	BetAmount float64
	Cause     error
}

// Error 实现error接口
func (e *SpinError) Error() string {
	switch e.Reason {
	case ReasonInvalidBet:
		return fmt.Sprintf("旋转失败[%s]: 无效的下注金额 %v", e.GameType, e.BetAmount)
	case ReasonUnknownGame:
		return fmt.Sprintf("旋转失败[%s]: 游戏未配置", e.GameType)
	default:
		return fmt.Sprintf("旋转失败[%s]: %v", e.GameType, e.Cause)
	}
}

// Unwrap 返回原始错误
func (e *SpinError) Unwrap() error {
	return e.Cause
}

// IsSpinError 判断错误链中是否包含指定原因的旋转错误
func IsSpinError(err error, reason SpinReason) bool {
	var se *SpinError
	if !errors.As(err, &se) {
		return false
	}
	return reason == "" || se.Reason == reason
}
