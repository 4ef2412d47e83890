// Package sampler decides which rows of a large dataset survive into a
// bounded sample.
//
// The package works purely on 1-based row indices: given a population of N
// data rows and a desired sample size K it produces a KeepSet, the set of
// indices to retain. Selection is uniform without replacement, so every
// size-K subset of the population is equally likely and no row can be
// chosen twice. Row content never enters this package; filtering the actual
// rows against a KeepSet is the writer's job.
//
// Two selection strategies are provided:
//
//   - SelectKeepSet: selection sampling over a population of known size
//   - Reservoir: single-pass sampling when the population size is unknown
package sampler

import (
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidSampleSize reports a negative requested sample size. Requesting
// more rows than exist is NOT an error; that case degrades to keeping every
// row.
var ErrInvalidSampleSize = errors.New("sample size must not be negative")

// KeepSet is the set of 1-based data-row indices selected for a sample.
//
// Membership tests are O(1). The zero value is not useful; KeepSets are
// produced by SelectKeepSet or Reservoir.KeepSet. To honor the
// min(K, N-K) memory bound, a KeepSet may internally store the complement
// (the skipped indices) when that side is smaller; Contains hides the
// distinction.
type KeepSet struct {
	members    map[int64]struct{}
	complement bool // members holds the skipped indices instead
	n          int64
}

// Contains reports whether data row i is part of the sample. Indices
// outside [1, N] are never members.
func (s *KeepSet) Contains(i int64) bool {
	if i < 1 || i > s.n {
		return false
	}
	_, ok := s.members[i]
	if s.complement {
		return !ok
	}
	return ok
}

// Len returns the number of selected indices, min(K, N).
func (s *KeepSet) Len() int64 {
	if s.complement {
		return s.n - int64(len(s.members))
	}
	return int64(len(s.members))
}

// Indices materializes the selected indices in ascending order. Intended
// for small sets and tests; the filtering path uses Contains instead.
func (s *KeepSet) Indices() []int64 {
	out := make([]int64, 0, s.Len())
	if s.complement {
		for i := int64(1); i <= s.n; i++ {
			if _, skip := s.members[i]; !skip {
				out = append(out, i)
			}
		}
		return out
	}
	for i := range s.members {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// SelectKeepSet draws k indices uniformly at random without replacement
// from the population {1, ..., n}.
//
// When k >= n the entire population is kept and no randomness is consumed.
// A nil rng falls back to a time-seeded source; pass a fixed-seed rng for
// reproducible samples.
//
// The implementation is selection sampling (Knuth's Algorithm S): scan the
// population once and accept index i with probability needed/remaining.
// When k exceeds n/2 the smaller skip set is drawn instead and the result
// stored as its complement, keeping memory at min(k, n-k). The complement
// of a uniform (n-k)-subset is itself a uniform k-subset, so uniformity is
// unaffected.
func SelectKeepSet(n, k int64, rng *rand.Rand) (*KeepSet, error) {
	if k < 0 {
		return nil, errors.Wrapf(ErrInvalidSampleSize, "sample size %d", k)
	}
	if n < 0 {
		return nil, errors.Errorf("row count must not be negative, got %d", n)
	}
	if k >= n {
		// Degenerate case: keep everything.
		return &KeepSet{members: map[int64]struct{}{}, complement: true, n: n}, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if k > n-k {
		return &KeepSet{members: draw(n, n-k, rng), complement: true, n: n}, nil
	}
	return &KeepSet{members: draw(n, k, rng), n: n}, nil
}

// draw picks k of {1, ..., n} by selection sampling. Produced indices are
// a uniform k-subset: index i is accepted with probability
// needed/remaining, which marginalizes to k/n for every i.
func draw(n, k int64, rng *rand.Rand) map[int64]struct{} {
	picked := make(map[int64]struct{}, k)
	needed := k
	for i := int64(1); i <= n && needed > 0; i++ {
		if rng.Int63n(n-i+1) < needed {
			picked[i] = struct{}{}
			needed--
		}
	}
	return picked
}
