// Package sampler provides the per-thread uniform random source every BSDF,
// emitter and integrator draws from.
package sampler

import (
	"math/rand"

	"github.com/pathtrace/nori-go/pkg/core"
)

// Sampler is the uniform random source a single render thread draws from
// while evaluating one pixel sample. It is not safe for concurrent use;
// each worker owns its own instance.
type Sampler interface {
	Get1D() float64
	Get2D() core.Vec2
	// Clone returns an independent sampler whose seed is drawn from this
	// one's stream and mixed with streamOffset, so it is reproducible given
	// this sampler's state.
	Clone(streamOffset int64) Sampler
}

// Independent draws i.i.d. uniform samples with no stratification, backed
// by a per-thread math/rand source.
type Independent struct {
	rng *rand.Rand
}

// NewIndependent constructs a sampler seeded from a single int64 seed.
func NewIndependent(seed int64) *Independent {
	return &Independent{rng: rand.New(rand.NewSource(seed))}
}

// SeedForTile derives a deterministic seed from a tile's coordinates and a
// sample index, so re-rendering the same scene with the same tile layout
// reproduces bit-identical images regardless of worker scheduling order.
func SeedForTile(tileX, tileY, sampleIndex int) int64 {
	// Mix the three coordinates with large odd multipliers (splitmix64-style)
	// so that adjacent tiles/samples don't produce correlated low-order bits.
	h := uint64(tileX)*0x9E3779B97F4A7C15 + uint64(tileY)*0xBF58476D1CE4E5B9 + uint64(sampleIndex)*0x94D049BB133111EB
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return int64(h)
}

func (s *Independent) Get1D() float64 { return s.rng.Float64() }

func (s *Independent) Get2D() core.Vec2 {
	return core.Vec2{X: s.rng.Float64(), Y: s.rng.Float64()}
}

func (s *Independent) Clone(streamOffset int64) Sampler {
	return NewIndependent(s.rng.Int63() ^ streamOffset)
}
