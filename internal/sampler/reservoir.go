package sampler

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Reservoir draws a uniform random sample of at most k row indices from a
// stream of unknown length in a single pass.
//
// Call Observe once per data row in stream order, then KeepSet once the
// stream is exhausted. While fewer than k rows have been observed the
// reservoir holds all of them; afterwards each new row replaces a random
// occupant with probability k/seen, which keeps every observed index
// equally likely to remain.
//
// Memory is O(k) regardless of stream length. Not safe for concurrent use.
type Reservoir struct {
	k    int64
	rng  *rand.Rand
	seen int64
	idx  []int64
}

// NewReservoir returns a reservoir of capacity k. A nil rng falls back to
// a time-seeded source.
func NewReservoir(k int64, rng *rand.Rand) (*Reservoir, error) {
	if k < 0 {
		return nil, errors.Wrapf(ErrInvalidSampleSize, "sample size %d", k)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Reservoir{k: k, rng: rng, idx: make([]int64, 0, k)}, nil
}

// Observe records the next data row of the stream as a sampling candidate.
func (r *Reservoir) Observe() {
	r.seen++
	switch {
	case int64(len(r.idx)) < r.k:
		r.idx = append(r.idx, r.seen)
	default:
		if j := r.rng.Int63n(r.seen); j < r.k {
			r.idx[j] = r.seen
		}
	}
}

// Seen returns the number of rows observed so far.
func (r *Reservoir) Seen() int64 {
	return r.seen
}

// KeepSet finalizes the reservoir into a keep set over the observed
// population. The reservoir can keep observing afterwards, but sets
// produced earlier do not change.
func (r *Reservoir) KeepSet() *KeepSet {
	members := make(map[int64]struct{}, len(r.idx))
	for _, i := range r.idx {
		members[i] = struct{}{}
	}
	return &KeepSet{members: members, n: r.seen}
}
