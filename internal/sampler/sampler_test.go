package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectKeepSet_SizeAndBounds(t *testing.T) {
	tests := []struct {
		name    string
		n, k    int64
		wantLen int64
	}{
		{name: "small sample", n: 100, k: 10, wantLen: 10},
		{name: "large sample stores complement", n: 100, k: 90, wantLen: 90},
		{name: "k equals n", n: 5, k: 5, wantLen: 5},
		{name: "k exceeds n", n: 5, k: 50, wantLen: 5},
		{name: "k zero", n: 10, k: 0, wantLen: 0},
		{name: "empty population", n: 0, k: 3, wantLen: 0},
		{name: "half", n: 10, k: 5, wantLen: 5},
	}

	rng := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, err := SelectKeepSet(tt.n, tt.k, rng)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, keep.Len())

			idx := keep.Indices()
			require.Len(t, idx, int(tt.wantLen))
			seen := make(map[int64]bool, len(idx))
			for _, i := range idx {
				assert.GreaterOrEqual(t, i, int64(1))
				assert.LessOrEqual(t, i, tt.n)
				assert.False(t, seen[i], "index %d selected twice", i)
				seen[i] = true
			}
		})
	}
}

func TestSelectKeepSet_NegativeSampleSize(t *testing.T) {
	_, err := SelectKeepSet(10, -1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)
}

func TestSelectKeepSet_NegativePopulation(t *testing.T) {
	_, err := SelectKeepSet(-1, 3, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestSelectKeepSet_DegenerateKeepsEverything(t *testing.T) {
	keep, err := SelectKeepSet(5, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, keep.Indices())
	for i := int64(1); i <= 5; i++ {
		assert.True(t, keep.Contains(i))
	}
}

func TestKeepSet_ContainsOutOfRange(t *testing.T) {
	keep, err := SelectKeepSet(10, 10, nil)
	require.NoError(t, err)
	assert.False(t, keep.Contains(0))
	assert.False(t, keep.Contains(-3))
	assert.False(t, keep.Contains(11))
}

func TestSelectKeepSet_Reproducible(t *testing.T) {
	first, err := SelectKeepSet(10, 3, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	second, err := SelectKeepSet(10, 3, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, first.Indices(), second.Indices())

	// A different seed should, with overwhelming probability, pick a
	// different set at least once across a few attempts.
	changed := false
	for seed := int64(43); seed < 53; seed++ {
		other, err := SelectKeepSet(10, 3, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		if !assert.ObjectsAreEqual(first.Indices(), other.Indices()) {
			changed = true
			break
		}
	}
	assert.True(t, changed, "10 reseeded draws never changed the selection")
}

func TestSelectKeepSet_ComplementMatchesDirect(t *testing.T) {
	// k > n/2 takes the complement path; the observable behavior must be
	// indistinguishable from a direct keep set.
	keep, err := SelectKeepSet(20, 17, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Equal(t, int64(17), keep.Len())

	var kept int64
	for i := int64(1); i <= 20; i++ {
		if keep.Contains(i) {
			kept++
		}
	}
	assert.Equal(t, int64(17), kept)
	assert.Len(t, keep.Indices(), 17)
}

// A weak statistical check that every row is selected with frequency close
// to k/n over many trials.
func TestSelectKeepSet_Uniformity(t *testing.T) {
	const (
		space   = 100
		samples = 50
		iters   = 1000
	)

	rng := rand.New(rand.NewSource(99))
	var count [space + 1]int
	for i := 0; i < iters; i++ {
		keep, err := SelectKeepSet(space, samples, rng)
		require.NoError(t, err)
		for _, idx := range keep.Indices() {
			count[idx]++
		}
	}

	const expected = iters * samples / space
	const minExpected = expected * 0.85
	const maxExpected = expected * 1.15
	for i := 1; i <= space; i++ {
		if n := count[i]; n < minExpected || n > maxExpected {
			t.Errorf("row %d selected %d times; expected range [%f,%f]",
				i, n, minExpected, maxExpected)
		}
	}
}
