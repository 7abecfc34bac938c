package domain

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// FallbackSeed replaces a zero seed, which would lock xorshift at zero.
const FallbackSeed uint64 = 0x9e3779b185ebca87

// RNG is a 64-bit xorshift generator. It is deterministic and not suitable
// for anything that needs unpredictability.
type RNG struct {
	state uint64
}

// NewRNG returns a generator seeded with seed, or FallbackSeed when seed is 0.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = FallbackSeed
	}
	return &RNG{state: seed}
}

// Next advances the generator and returns the new state.
func (r *RNG) Next() uint64 {
	v := r.state
	v ^= v << 7
	v ^= v >> 9
	v ^= v << 8
	r.state = v
	return v
}

// AdvanceSeed returns the successor of seed. Every new deck is shuffled with
// an advanced seed so a stored seed is never used twice.
func AdvanceSeed(seed uint64) uint64 {
	return NewRNG(seed).Next()
}

// NormalizeMasterSeed maps a zero master seed to FallbackSeed.
func NormalizeMasterSeed(seed uint64) uint64 {
	if seed == 0 {
		return FallbackSeed
	}
	return seed
}

// DeriveSeed mixes the master seed with an owner id:
// xxhash64(little-endian master seed || owner id bytes).
func DeriveSeed(masterSeed uint64, ownerID string) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], NormalizeMasterSeed(masterSeed))

	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(ownerID)
	if seed := d.Sum64(); seed != 0 {
		return seed
	}
	return FallbackSeed
}
