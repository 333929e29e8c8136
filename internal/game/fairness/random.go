package fairness

import (
	"crypto/hmac"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// RandomSource 均匀随机数来源，Float64 返回 [0, 1) 内的值
type RandomSource interface {
	Float64() float64
}

// RandomFunc 函数适配器
type RandomFunc func() float64

// Float64 实现 RandomSource
func (f RandomFunc) Float64() float64 {
	return f()
}

// ErrEntropyUnavailable 系统加密随机数不可用，不降级为伪随机数
var ErrEntropyUnavailable = errors.New("系统加密随机数不可用")

type cryptoSource struct{}

// NewCryptoSource 加密安全的随机数来源，可并发使用，生产环境默认值
func NewCryptoSource() RandomSource {
	return cryptoSource{}
}

// Float64 读取53位随机数，系统随机数不可用时以 ErrEntropyUnavailable panic
func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		panic(fmt.Errorf("%w: %v", ErrEntropyUnavailable, err))
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// SeededSource 固定种子的可复现随机数来源，非并发安全，每个调用方单独创建
type SeededSource struct {
	r *rand.Rand
}

// NewSeededSource 创建PCG种子随机数来源
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

// Float64 实现 RandomSource
func (s *SeededSource) Float64() float64 {
	return s.r.Float64()
}

// ProvablyFairSource 可验证公平的随机数来源
//
// 第 n 次取值为 HMAC-SHA256(serverSeed, "clientSeed:nonce:n") 的前4字节，
// 玩家拿到公开的服务端种子后可独立复算。非并发安全。
type ProvablyFairSource struct {
	serverSeed string
	clientSeed string
	nonce      uint64
	cursor     uint64
}

// NewProvablyFairSource 创建可验证公平随机数来源
func NewProvablyFairSource(serverSeed, clientSeed string, nonce uint64) *ProvablyFairSource {
	return &ProvablyFairSource{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
	}
}

// Float64 实现 RandomSource
func (s *ProvablyFairSource) Float64() float64 {
	mac := hmac.New(sha256.New, []byte(s.serverSeed))
	fmt.Fprintf(mac, "%s:%d:%d", s.clientSeed, s.nonce, s.cursor)
	s.cursor++
	sum := mac.Sum(nil)

	var f float64
	div := 256.0
	for i := 0; i < 4; i++ {
		f += float64(sum[i]) / div
		div *= 256
	}
	return f
}

// Cursor 已取值次数
func (s *ProvablyFairSource) Cursor() uint64 {
	return s.cursor
}

// HashServerSeed 服务端种子的公开承诺值
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// NewServerSeed 生成随机服务端种子
func NewServerSeed() (string, error) {
	var buf [32]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// SequenceSource 按给定序列循环取值，用于测试和回放
type SequenceSource struct {
	mu       sync.Mutex
	values   []float64
	consumed int
}

// NewSequenceSource 创建序列随机数来源
func NewSequenceSource(values ...float64) *SequenceSource {
	return &SequenceSource{values: values}
}

// Float64 实现 RandomSource，序列为空时返回0
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		s.consumed++
		return 0
	}
	v := s.values[s.consumed%len(s.values)]
	s.consumed++
	return v
}

// Consumed 已消耗的取值次数
func (s *SequenceSource) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}
