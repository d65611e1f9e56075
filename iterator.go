package swisstable

// Iterator yields every FULL (key, value) exactly once, lazily, group by
// group (spec §4.G). It is forward-only and not restartable except through
// Reset. Grounded on the teacher's group-by-group SWAR scan (table.go's
// get/compaction loops), generalized into a standalone, resumable walk
// over the flat control/entries arrays.
type Iterator[K comparable, V any] struct {
	m *Map[K, V]

	ctrlOffset uintptr
	current    bitMask

	version         uint64
	tolerantVersion uint64

	done    bool
	valid   bool // true after a MoveNext that produced an entry, until the next MoveNext/Reset
	err     error

	curKey K
	curVal V
}

// NewIterator captures the map's current version/tolerant_version and
// starts a scan at group 0.
func (m *Map[K, V]) NewIterator() *Iterator[K, V] {
	it := &Iterator[K, V]{m: m}
	it.Reset()
	return it
}

// Reset restarts the scan from group 0 and recaptures both versions (spec
// §4.G: "reset starts from group 0 and recaptures both versions").
func (it *Iterator[K, V]) Reset() {
	it.ctrlOffset = 0
	it.version = it.m.version
	it.tolerantVersion = it.m.tolerantVersion
	it.done = false
	it.valid = false
	it.err = nil
	if it.m.table.buckets > 0 {
		it.current = it.loadGroupFull(0)
	}
}

// loadGroupFull loads the FULL bitmask for the group at ctrlOffset, masking
// off any trailing lanes that are mirror bytes rather than real buckets
// (only possible when buckets < groupWidth, i.e. the B=4 small-table case:
// spec §8 invariant 1's mirror region must never be mistaken for distinct
// live entries).
func (it *Iterator[K, V]) loadGroupFull(ctrlOffset uintptr) bitMask {
	g := loadGroup(it.m.table.ctrl[ctrlOffset:]).matchFull()
	buckets := it.m.table.buckets
	if ctrlOffset+groupWidth > buckets {
		g = g.and(lowLanesMask(int(buckets - ctrlOffset)))
	}
	return g
}

// MoveNext advances to the next FULL slot, returning false at end-of-stream
// or on error (Err tells the two apart; Current only reports
// ErrInvalidOperation once MoveNext has returned false — mirrors the
// teacher's bool-returning scan loops).
func (it *Iterator[K, V]) MoveNext() bool {
	if it.done {
		return false
	}

	if it.version != it.m.version {
		it.err = ErrConcurrentModification
		it.done = true
		it.valid = false
		return false
	}
	if it.tolerantVersion != it.m.tolerantVersion {
		// Pure erasures only: AND-refresh the current group's bitmask so an
		// entry erased before being yielded disappears from the remaining
		// sequence (spec §4.G).
		it.tolerantVersion = it.m.tolerantVersion
		if it.m.table.buckets > 0 && it.ctrlOffset < it.m.table.buckets {
			it.current = it.current.and(it.loadGroupFull(it.ctrlOffset))
		}
	}

	for {
		if it.current.anyBitSet() {
			lane := it.current.lowestSetBitNonzero()
			it.current = it.current.removeLowestBit()
			idx := it.ctrlOffset + uintptr(lane)
			e := it.m.table.entries[idx]
			it.curKey, it.curVal = e.key, e.value
			it.valid = true
			return true
		}

		it.ctrlOffset += groupWidth
		if it.ctrlOffset >= it.m.table.buckets {
			it.done = true
			it.valid = false
			return false
		}
		it.current = it.loadGroupFull(it.ctrlOffset)
	}
}

// Current returns the entry produced by the most recent MoveNext, or
// ErrInvalidOperation if called before the first MoveNext or after
// MoveNext has returned false (spec §4.G / §7).
func (it *Iterator[K, V]) Current() (K, V, error) {
	if !it.valid {
		var zk K
		var zv V
		return zk, zv, ErrInvalidOperation
	}
	return it.curKey, it.curVal, nil
}

// Err returns the error, if any, that terminated the scan.
func (it *Iterator[K, V]) Err() error {
	return it.err
}
