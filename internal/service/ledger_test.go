package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/fairness-engine/internal/errors"
)

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(100)

	b, err := l.Balance(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, b)

	b, err = l.Debit(ctx, "p1", 30)
	require.NoError(t, err)
	assert.Equal(t, 70.0, b)

	b, err = l.Credit(ctx, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 75.0, b)

	// 余额不足时不扣款
	b, err = l.Debit(ctx, "p1", 80)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientCoins))
	assert.Equal(t, 75.0, b)
	b, _ = l.Balance(ctx, "p1")
	assert.Equal(t, 75.0, b)

	_, err = l.Debit(ctx, "p1", 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
	_, err = l.Credit(ctx, "p1", -1)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
}

func TestMemoryLedger_ConcurrentDebit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Debit(ctx, "p1", 10); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	b, _ := l.Balance(ctx, "p1")
	assert.Equal(t, 0.0, b)
}
