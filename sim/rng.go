package sim

import (
	"hash/fnv"
	"math/rand"
)

// RaceKey identifies a reproducible race. Two races with the same key and
// configuration sample identical violations.
type RaceKey int64

// NewRaceKey creates a RaceKey from a seed value.
func NewRaceKey(seed int64) RaceKey {
	return RaceKey(seed)
}

const (
	// SubsystemRaceControl is the stream used for violation sampling.
	SubsystemRaceControl = "race_control"
)

// PartitionedRNG hands out one deterministic *rand.Rand per named stream,
// seeded with key XOR fnv1a64(name), so draws on one stream never shift
// another.
//
// Not thread-safe; the returned generators are not either. Callers that share
// a stream across goroutines must serialize access.
type PartitionedRNG struct {
	key     RaceKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RaceKey.
func NewPartitionedRNG(key RaceKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached generator for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.streams[name] = rng
	return rng
}

// Key returns the RaceKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RaceKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
