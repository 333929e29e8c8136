package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/fairness-engine/internal/game/fairness"
)

func TestRun_DefaultGame(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-game", "wheel", "-rounds", "20000", "-seed", "42", "-json"}, &out)
	require.NoError(t, err)

	var result fairness.SimulationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 20000, result.Rounds)
	assert.InDelta(t, 35.0, result.ExpectedWinRate, 1e-9)
	assert.InDelta(t, 35.0, result.WinRate, 1.5)
}

func TestRun_TableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	content := `
target_win_rate: 50
outcomes:
  - id: lose
    label: 未中奖
    weight: 3
    multiplier: 0
  - id: win
    label: 双倍
    weight: 1
    multiplier: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-table", path, "-game", "coin", "-rounds", "1000", "-seed", "7"}, &out))
	assert.Contains(t, out.String(), "游戏: coin")
	assert.Contains(t, out.String(), "目标胜率: 50.00%")
	assert.Contains(t, out.String(), "RTP: ")
}

func TestRun_RateOverride(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-game", "slots", "-rate", "0", "-rounds", "500", "-seed", "1", "-json"}, &out))

	var result fairness.SimulationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 0, result.Wins)
	assert.Equal(t, 0.0, result.TotalPayout)
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"-game", "dice"}, &out))
	assert.Error(t, run([]string{"-table", filepath.Join(t.TempDir(), "missing.yaml")}, &out))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("outcomes:\n  - id: only\n    weight: 1\n    multiplier: 2\n"), 0o644))
	assert.Error(t, run([]string{"-table", bad}, &out))
}
