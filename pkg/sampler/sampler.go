// Package sampler wraps a seeded pseudo-random source behind the small
// draw/sample/shuffle contract the inference engine consumes. All draws go
// through a single instance so that a fixed seed reproduces a run exactly.
package sampler

import (
	"math/rand"
)

// Sampler is a deterministic random source. It is not safe for concurrent
// use; the engine is single-threaded and owns exactly one instance.
type Sampler struct {
	rng *rand.Rand
}

// New creates a sampler seeded with the given value.
func New(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// DrawUnif returns a uniform draw from [0, 1).
func (s *Sampler) DrawUnif() float64 {
	return s.rng.Float64()
}

// Intn returns a uniform draw from [0, n). n must be positive.
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}

// Sample returns a uniformly chosen element of ids, or "" if ids is empty.
func (s *Sampler) Sample(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[s.rng.Intn(len(ids))]
}

// WeightedSample returns an element of ids chosen with probability
// proportional to its weight. Zero-weight entries are never chosen.
// Returns "" when the total weight is not positive.
func (s *Sampler) WeightedSample(ids []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return ""
	}

	r := s.rng.Intn(total)
	for i, w := range weights {
		r -= w
		if r < 0 {
			return ids[i]
		}
	}
	return ids[len(ids)-1]
}

// Shuffle permutes n elements in place through the swap callback.
func (s *Sampler) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}
