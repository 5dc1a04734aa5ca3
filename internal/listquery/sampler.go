package listquery

import (
	"slices"
	"unicode/utf16"
)

// HashSeed maps a seed string to PRNG state with the djb2 xor variant
// (h = h*33 ^ c, starting at 5381) over UTF-16 code units, so the same seed
// produces the same state as the browser implementation.
func HashSeed(seed string) uint32 {
	h := uint32(5381)
	for _, c := range utf16.Encode([]rune(seed)) {
		h = (h * 33) ^ uint32(c)
	}
	return h
}

// Mulberry32 is a small 32-bit PRNG. Not safe for concurrent use; each
// Sample call owns its own instance.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a generator.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the generator and returns the next raw value.
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns the next value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296
}

// Sample returns min(count, len(items)) distinct elements of items in an
// order fully determined by seed. items is not modified.
func Sample[T any](items []T, count int, seed string) []T {
	if count <= 0 || len(items) == 0 {
		return []T{}
	}

	shuffled := slices.Clone(items)
	rng := NewMulberry32(HashSeed(seed))
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}
