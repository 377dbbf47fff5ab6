// Package randutil provides the deterministic random source used for
// shuffling and trump selection. The helper centralises how seeds are
// derived so that all call sites get reproducible sequences.
package randutil

// Source yields floats in [0, 1). Implementations are deterministic for a
// given seed: the same seed always produces the same sequence.
type Source interface {
	Next() float64
}

const defaultSeed uint32 = 0x12345678

// Mulberry32 is a small 32-bit PRNG with a single word of state. It is fast,
// has no allocation, and its sequences are stable across platforms, which is
// what makes replaying a deal from a seed possible.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a generator from a raw 32-bit seed.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Next returns the next float in [0, 1).
func (m *Mulberry32) Next() float64 {
	m.state += 0x6d2b79f5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// HashSeed reduces a string seed to a 32-bit value using a 31x rolling hash,
// so human-readable seeds ("game-42") can be used in configs and tests.
func HashSeed(seed string) uint32 {
	var h int32
	for _, c := range seed {
		h = 31*h + int32(c)
	}
	return uint32(h)
}

// NewFromSeed builds a Source from an optional seed string. An empty seed
// falls back to a fixed default rather than wall-clock time; callers that
// want non-reproducible shuffles pass their own entropy.
func NewFromSeed(seed string) Source {
	if seed == "" {
		return NewMulberry32(defaultSeed)
	}
	return NewMulberry32(HashSeed(seed))
}

// NewFromInt builds a Source from a numeric seed, truncated to 32 bits.
func NewFromInt(seed int64) Source {
	return NewMulberry32(uint32(seed))
}
