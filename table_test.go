package swisstable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(buckets uintptr) *rawTable[int, int] {
	return newRawTable[int, int](buckets, newDefaultComparer[int]())
}

func TestRawTable_New(t *testing.T) {
	tt := newTable(8)

	require.Equal(t, uintptr(8), tt.buckets)
	require.Equal(t, uintptr(7), tt.bucketMask())
	require.Equal(t, uintptr(7), tt.growth) // load_capacity(8) == 7
	require.Len(t, tt.ctrl, 8+groupWidth)
	for _, b := range tt.ctrl {
		assert.Equal(t, ctrlEmpty, b)
	}
}

func TestRawTable_New_Empty(t *testing.T) {
	tt := newTable(0)

	require.Equal(t, uintptr(0), tt.buckets)
	require.Equal(t, uintptr(0), tt.bucketMask())
	require.Same(t, &sharedEmptyCtrl[0], &tt.ctrl[0])
}

func TestRawTable_InsertAndFind(t *testing.T) {
	tt := newTable(16)

	replaced, added, err := tt.insert(42, 100, behaviorOverwrite)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.True(t, added)

	idx, found, err := tt.findBucket(tt.comparer.Hash(42), 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 100, tt.entries[idx].value)

	replaced, added, err = tt.insert(42, 200, behaviorOverwrite)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.False(t, added)

	idx, found, err = tt.findBucket(tt.comparer.Hash(42), 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 200, tt.entries[idx].value)
}

func TestRawTable_Insert_ThrowOnExisting(t *testing.T) {
	tt := newTable(16)

	_, _, err := tt.insert(1, 1, behaviorThrowOnExisting)
	require.NoError(t, err)

	_, _, err = tt.insert(1, 2, behaviorThrowOnExisting)
	require.ErrorIs(t, err, ErrDuplicateKey)

	idx, found, _ := tt.findBucket(tt.comparer.Hash(1), 1)
	require.True(t, found)
	assert.Equal(t, 1, tt.entries[idx].value)
}

func TestRawTable_Insert_TryAdd(t *testing.T) {
	tt := newTable(16)

	_, added, err := tt.insert(1, 1, behaviorTryAdd)
	require.NoError(t, err)
	assert.True(t, added)

	_, added, err = tt.insert(1, 2, behaviorTryAdd)
	require.NoError(t, err)
	assert.False(t, added)

	idx, _, _ := tt.findBucket(tt.comparer.Hash(1), 1)
	assert.Equal(t, 1, tt.entries[idx].value)
}

func TestRawTable_Insert_GrowsOnFull(t *testing.T) {
	tt := newTable(4)

	for i := 0; i < 3; i++ {
		_, _, err := tt.insert(i, i, behaviorOverwrite)
		require.NoError(t, err)
	}
	// load_capacity(4)=3: a table must always keep >=1 EMPTY slot (§8
	// invariant 5), so growth_left is already exhausted here.
	require.Equal(t, uintptr(4), tt.buckets)
	require.Equal(t, uintptr(0), tt.growth)

	// A 4th insert forces growth past load_capacity(4)=3.
	_, added, err := tt.insert(3, 3, behaviorOverwrite)
	require.NoError(t, err)
	require.True(t, added)
	assert.Greater(t, tt.buckets, uintptr(4))
	assert.Equal(t, uintptr(4), tt.count)
}

func TestRawTable_EraseKeepsProbeChain(t *testing.T) {
	// Force every key down the same probe chain so that erasing a key in the
	// middle of it (erase §4.E) is exercised deterministically; a later key
	// on the chain must still be found.
	tt := newRawTable[string, string](16, collidingStringComparer())

	_, _, err := tt.insert("A", "foo", behaviorOverwrite) // slot 0
	require.NoError(t, err)
	_, _, err = tt.insert("B", "bar", behaviorOverwrite) // slot 1, via probe
	require.NoError(t, err)
	_, _, err = tt.insert("C", "lol", behaviorOverwrite) // slot 2, via probe
	require.NoError(t, err)

	idxB, found, _ := tt.findBucket(tt.comparer.Hash("B"), "B")
	require.True(t, found)
	tt.erase(idxB)

	idx, found, err := tt.findBucket(tt.comparer.Hash("C"), "C")
	require.NoError(t, err)
	require.True(t, found, "probe chain broken: could not find C after erasing B")
	assert.Equal(t, "lol", tt.entries[idx].value)
}

func TestRawTable_MirrorInvariant(t *testing.T) {
	tt := newTable(16)
	for i := 0; i < 10; i++ {
		_, _, err := tt.insert(i, i, behaviorOverwrite)
		require.NoError(t, err)
	}

	for i := uintptr(0); i < groupWidth; i++ {
		assert.Equalf(t, tt.ctrl[i], tt.ctrl[tt.buckets+i], "mirror mismatch at lane %d", i)
	}
}

func TestRawTable_Clear(t *testing.T) {
	tt := newTable(16)
	for i := 0; i < 5; i++ {
		_, _, err := tt.insert(i, i, behaviorOverwrite)
		require.NoError(t, err)
	}

	tt.clear()

	assert.Equal(t, uintptr(0), tt.count)
	assert.Equal(t, loadCapacity(tt.buckets), tt.growth)
	for _, b := range tt.ctrl {
		assert.Equal(t, ctrlEmpty, b)
	}
}

func TestRawTable_CloneInto(t *testing.T) {
	tt := newTable(16)
	for i := 0; i < 5; i++ {
		_, _, err := tt.insert(i, i*10, behaviorOverwrite)
		require.NoError(t, err)
	}

	clone := tt.cloneInto()
	assert.Equal(t, tt.ctrl, clone.ctrl)
	assert.Equal(t, tt.count, clone.count)

	idx, found, _ := clone.findBucket(clone.comparer.Hash(2), 2)
	require.True(t, found)
	assert.Equal(t, 20, clone.entries[idx].value)

	// Mutating the clone must not affect the source.
	clone.erase(idx)
	_, found, _ = tt.findBucket(tt.comparer.Hash(2), 2)
	assert.True(t, found)
}

func TestCapacityToBuckets(t *testing.T) {
	tests := []struct {
		name    string
		cap     uintptr
		want    uintptr
		wantErr error
	}{
		{"below 4", 3, 4, nil},
		{"below 8", 7, 8, nil},
		{"exact boundary 0x37FFFFFF", 0x37FFFFFF, 0x4000_0000, nil},
		{"overflow just past boundary", 0x38000000, 0, ErrCapacityOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := capacityToBuckets(tt.cap)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCapacity(t *testing.T) {
	// A non-empty table must always keep >=1 EMPTY slot (spec §8
	// invariant 5), so every nonzero bucket count loses at least one slot
	// of capacity, including the small staircase values.
	assert.Equal(t, uintptr(0), loadCapacity(0))
	assert.Equal(t, uintptr(3), loadCapacity(4))
	assert.Equal(t, uintptr(7), loadCapacity(8))
	assert.Equal(t, uintptr(16*7/8), loadCapacity(16))
}

type stringComparer struct {
	hashFn func(string) uint64
}

func (c stringComparer) Hash(k string) uint64    { return c.hashFn(k) }
func (c stringComparer) Equal(a, b string) bool { return a == b }

func collidingStringComparer() Comparer[string] {
	return stringComparer{hashFn: func(string) uint64 { return 0 }}
}
