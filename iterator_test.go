package swisstable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_YieldsAllEntries(t *testing.T) {
	m := New[int, int](16)
	want := map[int]int{}
	for i := 0; i < 10; i++ {
		m.Set(i, i*2)
		want[i] = i * 2
	}

	got := map[int]int{}
	it := m.NewIterator()
	for it.MoveNext() {
		k, v, err := it.Current()
		require.NoError(t, err)
		got[k] = v
	}
	require.NoError(t, it.Err())
	assert.Equal(t, want, got)
}

func TestIterator_CurrentBeforeMoveNext(t *testing.T) {
	m := New[int, int](16)
	m.Set(1, 1)

	it := m.NewIterator()
	_, _, err := it.Current()
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestIterator_CurrentAfterExhaustion(t *testing.T) {
	m := New[int, int](16)
	m.Set(1, 1)

	it := m.NewIterator()
	for it.MoveNext() {
	}
	_, _, err := it.Current()
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestIterator_ToleratesEraseMidScan(t *testing.T) {
	// spec §8 end-to-end scenario 4.
	m := New[int, int](16)
	for i := 1; i <= 16; i++ {
		require.NoError(t, m.Add(i, i))
	}

	it := m.NewIterator()
	m.Remove(8) // erase-only: bumps tolerant_version, not version (§4.F)

	seen := map[int]bool{}
	for it.MoveNext() {
		k, _, err := it.Current()
		require.NoError(t, err)
		seen[k] = true
	}
	require.NoError(t, it.Err())

	assert.Len(t, seen, 15)
	assert.False(t, seen[8], "key 8 must never be yielded once erased before the iterator reaches it")
	for i := 1; i <= 16; i++ {
		if i == 8 {
			continue
		}
		assert.True(t, seen[i], "key %d should have been yielded", i)
	}
	assert.False(t, m.ContainsKey(8))
}

func TestIterator_ConcurrentModificationDetection(t *testing.T) {
	// spec §8 end-to-end scenario 5.
	m := New[int, int](16)
	for i := 1; i <= 4; i++ {
		require.NoError(t, m.Add(i, i))
	}

	it := m.NewIterator()
	require.True(t, it.MoveNext())

	require.NoError(t, m.Add(99, 99))

	for it.MoveNext() {
		// drain until failure
	}
	assert.ErrorIs(t, it.Err(), ErrConcurrentModification)
}

func TestIterator_Reset(t *testing.T) {
	m := New[int, int](16)
	m.Set(1, 1)
	m.Set(2, 2)

	it := m.NewIterator()
	require.True(t, it.MoveNext())

	it.Reset()
	count := 0
	for it.MoveNext() {
		count++
	}
	assert.Equal(t, 2, count)
}

// TestIterator_SmallTable exercises buckets==4, the sole case where a
// group load's trailing lanes (4..7) are mirror copies of lanes 0..3
// rather than distinct buckets (spec §8 invariant 1).
func TestIterator_SmallTable(t *testing.T) {
	m := New[int, int](0)
	require.NoError(t, m.Add(1, 10))
	require.NoError(t, m.Add(2, 20))
	require.Equal(t, 3, m.Cap()) // load_capacity(4) == 3, so buckets == 4

	got := map[int]int{}
	it := m.NewIterator()
	for it.MoveNext() {
		k, v, err := it.Current()
		require.NoError(t, err)
		got[k] = v
	}
	require.NoError(t, it.Err())
	assert.Equal(t, map[int]int{1: 10, 2: 20}, got)
}

func TestIterator_EmptyTable(t *testing.T) {
	m := New[int, int](0)
	it := m.NewIterator()
	assert.False(t, it.MoveNext())
	require.NoError(t, it.Err())
}
