package service

import (
	"context"
	"sync"

	apperrors "github.com/wfunc/fairness-engine/internal/errors"
)

// Ledger 玩家余额账本，扣款和派彩由外部钱包实现
type Ledger interface {
	Debit(ctx context.Context, playerID string, amount float64) (float64, error)
	Credit(ctx context.Context, playerID string, amount float64) (float64, error)
	Balance(ctx context.Context, playerID string) (float64, error)
}

// MemoryLedger 单机模式的内存账本，首次出现的玩家获得初始余额
type MemoryLedger struct {
	mu       sync.Mutex
	initial  float64
	balances map[string]float64
}

// NewMemoryLedger 创建内存账本
func NewMemoryLedger(initialBalance float64) *MemoryLedger {
	return &MemoryLedger{
		initial:  initialBalance,
		balances: make(map[string]float64),
	}
}

func (l *MemoryLedger) balance(playerID string) float64 {
	b, ok := l.balances[playerID]
	if !ok {
		b = l.initial
		l.balances[playerID] = b
	}
	return b
}

// Debit 扣款，余额不足时不做任何修改
func (l *MemoryLedger) Debit(ctx context.Context, playerID string, amount float64) (float64, error) {
	if !(amount > 0) {
		return 0, apperrors.Newf(apperrors.ErrInvalidParam, "扣款金额无效: %v", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(playerID)
	if b < amount {
		return b, apperrors.Newf(apperrors.ErrInsufficientCoins, "余额 %.2f 不足以支付 %.2f", b, amount)
	}
	b -= amount
	l.balances[playerID] = b
	return b, nil
}

// Credit 派彩
func (l *MemoryLedger) Credit(ctx context.Context, playerID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidParam, "派彩金额无效: %v", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(playerID) + amount
	l.balances[playerID] = b
	return b, nil
}

// Balance 查询余额
func (l *MemoryLedger) Balance(ctx context.Context, playerID string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(playerID), nil
}
