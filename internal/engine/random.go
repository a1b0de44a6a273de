package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// Rand is the only source of chance in the engine: room rolls, trials, boss fights, loot.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// SeedFromString returns a 64-bit seed from an arbitrary string using SHA256.
func SeedFromString(s string) uint64 {
	h := sha256.Sum256([]byte(s))
	return binary.LittleEndian.Uint64(h[:8])
}

// NewRand returns a deterministic stream for seed, or a clock-seeded one when seed is empty.
func NewRand(seed string) *Stream {
	if seed == "" {
		return NewStream(uint64(time.Now().UnixNano()))
	}
	return NewStream(SeedFromString(seed))
}

// Stream is a SplitMix64 generator.
type Stream struct{ state uint64 }

func NewStream(seed uint64) *Stream { return &Stream{state: seed} }

func (s *Stream) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Intn mirrors math/rand.Intn but never panics; n <= 0 yields 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.next() % uint64(n))
}

// Float64 returns a float in [0,1).
func (s *Stream) Float64() float64 {
	return float64(s.next()>>11) / (1 << 53)
}
