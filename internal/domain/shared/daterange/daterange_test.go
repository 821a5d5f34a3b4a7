package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, from, to int) DateRange {
	t.Helper()
	dr, err := New(day(from), day(to))
	require.NoError(t, err)
	return dr
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dr, err := New(day(1), day(5))
		require.NoError(t, err)
		assert.Equal(t, 4, dr.Nights())
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := New(day(5), day(1))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("zero length", func(t *testing.T) {
		_, err := New(day(3), day(3))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("zero times", func(t *testing.T) {
		_, err := New(time.Time{}, day(3))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{"disjoint", mustRange(t, 1, 3), mustRange(t, 5, 8), false},
		{"partial", mustRange(t, 1, 5), mustRange(t, 4, 8), true},
		{"contained", mustRange(t, 1, 10), mustRange(t, 3, 5), true},
		{"identical", mustRange(t, 2, 6), mustRange(t, 2, 6), true},
		{"adjacent back to back", mustRange(t, 1, 5), mustRange(t, 5, 9), false},
		{"single night shared", mustRange(t, 1, 5), mustRange(t, 4, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// overlap is symmetric
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestAdjacent(t *testing.T) {
	a := mustRange(t, 1, 5)
	b := mustRange(t, 5, 9)
	assert.True(t, a.Adjacent(b))
	assert.True(t, b.Adjacent(a))
	assert.False(t, a.Adjacent(mustRange(t, 6, 9)))
}

func TestContains(t *testing.T) {
	outer := mustRange(t, 1, 10)
	assert.True(t, outer.Contains(mustRange(t, 3, 5)))
	assert.True(t, outer.Contains(outer))
	assert.False(t, outer.Contains(mustRange(t, 5, 11)))
}

func TestContainsDate(t *testing.T) {
	dr := mustRange(t, 1, 5)
	assert.True(t, dr.ContainsDate(day(1)))
	assert.True(t, dr.ContainsDate(day(4)))
	// checkout day is not occupied
	assert.False(t, dr.ContainsDate(day(5)))
	assert.False(t, dr.ContainsDate(day(7)))
}

func TestMerge(t *testing.T) {
	t.Run("overlapping", func(t *testing.T) {
		union, ok := mustRange(t, 1, 5).Merge(mustRange(t, 4, 8))
		require.True(t, ok)
		assert.Equal(t, mustRange(t, 1, 8), union)
	})

	t.Run("adjacent", func(t *testing.T) {
		union, ok := mustRange(t, 1, 5).Merge(mustRange(t, 5, 9))
		require.True(t, ok)
		assert.Equal(t, mustRange(t, 1, 9), union)
	})

	t.Run("disjoint", func(t *testing.T) {
		_, ok := mustRange(t, 1, 3).Merge(mustRange(t, 6, 9))
		assert.False(t, ok)
	})
}

func TestClamp(t *testing.T) {
	window := mustRange(t, 5, 15)

	trimmed, ok := mustRange(t, 1, 10).Clamp(window)
	require.True(t, ok)
	assert.Equal(t, mustRange(t, 5, 10), trimmed)

	trimmed, ok = mustRange(t, 10, 20).Clamp(window)
	require.True(t, ok)
	assert.Equal(t, mustRange(t, 10, 15), trimmed)

	inside := mustRange(t, 7, 9)
	trimmed, ok = inside.Clamp(window)
	require.True(t, ok)
	assert.Equal(t, inside, trimmed)

	_, ok = mustRange(t, 1, 5).Clamp(window)
	assert.False(t, ok)
}
