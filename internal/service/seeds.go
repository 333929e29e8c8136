package service

import (
	"sync"

	"github.com/wfunc/fairness-engine/internal/game/fairness"
)

// SeedCommitment 玩家当前种子对的公开信息，抽奖前即可获取
type SeedCommitment struct {
	PlayerID       string `json:"player_id"`
	ServerSeedHash string `json:"server_seed_hash"`
	Nonce          uint64 `json:"nonce"` // 已使用次数，下一回合使用 Nonce+1
}

// RevealedSeed 轮换后公开的旧服务端种子
type RevealedSeed struct {
	ServerSeed     string         `json:"server_seed"`
	ServerSeedHash string         `json:"server_seed_hash"`
	Nonce          uint64         `json:"nonce"`
	Next           SeedCommitment `json:"next"`
}

type seedPair struct {
	serverSeed string
	hash       string
	nonce      uint64
}

// seedStore 每个玩家一个已承诺的服务端种子，轮换前不公开
type seedStore struct {
	mu      sync.Mutex
	players map[string]*seedPair
	newSeed func() (string, error)
}

func newSeedStore() *seedStore {
	return &seedStore{
		players: make(map[string]*seedPair),
		newSeed: fairness.NewServerSeed,
	}
}

// current 调用方持有锁
func (s *seedStore) current(playerID string) (*seedPair, error) {
	if pair, ok := s.players[playerID]; ok {
		return pair, nil
	}
	pair, err := s.generate()
	if err != nil {
		return nil, err
	}
	s.players[playerID] = pair
	return pair, nil
}

func (s *seedStore) generate() (*seedPair, error) {
	seed, err := s.newSeed()
	if err != nil {
		return nil, err
	}
	return &seedPair{serverSeed: seed, hash: fairness.HashServerSeed(seed)}, nil
}

// Commitment 返回玩家当前种子的哈希，首次调用时生成种子
func (s *seedStore) Commitment(playerID string) (SeedCommitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair, err := s.current(playerID)
	if err != nil {
		return SeedCommitment{}, err
	}
	return SeedCommitment{PlayerID: playerID, ServerSeedHash: pair.hash, Nonce: pair.nonce}, nil
}

// Next 为一次抽奖占用当前种子的下一个 nonce
func (s *seedStore) Next(playerID string) (serverSeed, hash string, nonce uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair, err := s.current(playerID)
	if err != nil {
		return "", "", 0, err
	}
	pair.nonce++
	return pair.serverSeed, pair.hash, pair.nonce, nil
}

// Rotate 公开当前种子并换上新种子
func (s *seedStore) Rotate(playerID string) (*RevealedSeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, err := s.current(playerID)
	if err != nil {
		return nil, err
	}
	next, err := s.generate()
	if err != nil {
		return nil, err
	}
	s.players[playerID] = next

	return &RevealedSeed{
		ServerSeed:     old.serverSeed,
		ServerSeedHash: old.hash,
		Nonce:          old.nonce,
		Next:           SeedCommitment{PlayerID: playerID, ServerSeedHash: next.hash},
	}, nil
}

// Active 种子是否仍在使用，使用中的种子不能公开
func (s *seedStore) Active(playerID, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair, ok := s.players[playerID]
	return ok && pair.hash == hash
}
