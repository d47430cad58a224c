// Package random wraps math/rand behind an interface so spawn rolls and
// beast-square draws can be made deterministic in tests.
package random

import (
	"math/rand"
	"time"
)

// Source provides the randomness the engine needs. Injected so tests can seed it.
type Source interface {
	// Intn returns a uniform int in [0, n)
	Intn(n int) int

	// Shuffle pseudo-randomizes the order of n elements
	Shuffle(n int, swap func(i, j int))
}

type randSource struct {
	rng *rand.Rand
}

// New creates a Source seeded from the current time.
func New() Source {
	return &randSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded creates a deterministic Source for tests.
func NewSeeded(seed int64) Source {
	return &randSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randSource) Intn(n int) int {
	return s.rng.Intn(n)
}

func (s *randSource) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// Sample returns k distinct elements drawn from pool without replacement.
// The pool itself is not modified.
func Sample(src Source, pool []string, k int) []string {
	if k > len(pool) {
		k = len(pool)
	}
	picked := make([]string, len(pool))
	copy(picked, pool)
	src.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:k]
}
