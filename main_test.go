package swisstable

// intComparer lets tests pin down exact probe/group behavior with a
// deterministic hash, in the manner of the teacher's table_test.go
// custom `collisionHash` closures.
type intComparer struct {
	hashFn func(int) uint64
}

func (c intComparer) Hash(k int) uint64    { return c.hashFn(k) }
func (c intComparer) Equal(a, b int) bool { return a == b }

// collidingComparer always returns the same hash, forcing every key down
// the same probe sequence — grounded on the teacher's
// TestTable_put_Tombstones collision-forcing hash function.
func collidingComparer() Comparer[int] {
	return intComparer{hashFn: func(int) uint64 { return 0 }}
}

// identityComparer uses the key itself as the hash (h1 passes it through
// unchanged), giving tests full control over which bucket a key lands in.
func identityComparer() Comparer[int] {
	return intComparer{hashFn: func(k int) uint64 { return uint64(k) }}
}
