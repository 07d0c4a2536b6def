package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/graphcheck/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s; s=1.0 gives standard Zipf.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// LabelSet returns between 1 and maxLabels distinct labels from
// [0, labelSpace), sorted. Low label ids are more popular.
func (r *RNG) LabelSet(maxLabels, labelSpace int) []model.LabelID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.labelSetLocked(maxLabels, labelSpace)
}

func (r *RNG) labelSetLocked(maxLabels, labelSpace int) []model.LabelID {
	maxLabels = min(maxLabels, labelSpace)
	if maxLabels <= 0 {
		return nil
	}
	n := 1 + r.rand.Intn(maxLabels)

	seen := make(map[model.LabelID]struct{}, n)
	out := make([]model.LabelID, 0, n)
	for len(out) < n {
		l := model.LabelID(r.zipfLocked(labelSpace, 1.0))
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// LabelSets generates n label sets. Locks only once per call.
func (r *RNG) LabelSets(n, maxLabels, labelSpace int) [][]model.LabelID {
	r.mu.Lock()
	defer r.mu.Unlock()

	sets := make([][]model.LabelID, n)
	for i := range sets {
		sets[i] = r.labelSetLocked(maxLabels, labelSpace)
	}
	return sets
}
