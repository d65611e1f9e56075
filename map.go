package swisstable

import "fmt"

// Map is a Swiss-Table–style associative map: hash/equality dispatch,
// insert policies, capacity management, and a scanning iterator sit on top
// of the raw table (spec §4.F). Grounded on the teacher's StableMap
// (map.go), generalized from a fixed-capacity, non-growing wrapper to the
// full growth/tombstone/iteration engine the raw table now implements.
type Map[K comparable, V any] struct {
	table *rawTable[K, V]

	// version is bumped by every mutating operation except a pure erase;
	// the scanning iterator fails fast (ErrConcurrentModification) when it
	// observes a change.
	version uint64

	// tolerantVersion bumps on erase (which leaves version unchanged) and
	// on insert-into-a-tombstone (which bumps version as well), letting an
	// in-flight iterator AND-refresh its current
	// group's bitmask instead of failing (spec §4.G, §9 "Two version
	// counters").
	tolerantVersion uint64
}

// Option configures a Map at construction, in the manner of the teacher's
// Option[K,V] (table.go's WithHashFunc).
type Option[K comparable, V any] func(*Map[K, V])

// WithComparer installs a caller-supplied hash/equality strategy (spec
// §6), generalizing the teacher's WithHashFunc from a bare hash function to
// the full Comparer protocol.
func WithComparer[K comparable, V any](c Comparer[K]) Option[K, V] {
	return func(m *Map[K, V]) {
		m.table.comparer = c
	}
}

// New constructs a Map with the given initial capacity (0 is the singleton
// empty table; spec §3 "Lifecycle").
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Map[K, V] {
	var buckets uintptr
	if capacity > 0 {
		b, err := capacityToBuckets(uintptr(capacity))
		assert(err == nil, "New: capacityToBuckets failed for requested capacity %d", capacity)
		buckets = b
	}

	m := &Map[K, V]{}
	m.table = newRawTable[K, V](buckets, nil)
	for _, opt := range opts {
		opt(m)
	}
	if m.table.comparer == nil {
		m.table.comparer = newDefaultComparer[K]()
	}
	return m
}

func (m *Map[K, V]) checkKey(key K) error {
	if isNilKey(key) {
		return ErrNullKey
	}
	return nil
}

// Add inserts (k, v); DuplicateKey if k is already present (spec §6).
func (m *Map[K, V]) Add(key K, value V) error {
	if err := m.checkKey(key); err != nil {
		return err
	}
	_, _, err := m.insertTracked(key, value, behaviorThrowOnExisting)
	return err
}

// TryAdd inserts (k, v) iff k is absent; returns whether it inserted.
func (m *Map[K, V]) TryAdd(key K, value V) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}
	_, added, err := m.insertTracked(key, value, behaviorTryAdd)
	return added, err
}

// Set inserts or overwrites k with v (spec §6 `set(k,v)`).
func (m *Map[K, V]) Set(key K, value V) error {
	if err := m.checkKey(key); err != nil {
		return err
	}
	_, _, err := m.insertTracked(key, value, behaviorOverwrite)
	return err
}

// insertTracked wraps rawTable.insert, bumping version on every write (an
// overwrite or a new slot; a rejected or skipped duplicate changes nothing)
// and additionally bumping tolerantVersion when the write lands on
// a DELETED control byte, per §4.F's routing rule ("Erase and
// Insert-into-tombstone additionally increment a tolerant_version").
func (m *Map[K, V]) insertTracked(key K, value V, behavior insertBehavior) (replaced, added bool, err error) {
	hash := m.table.comparer.Hash(key)
	idx, found, ferr := m.table.findBucket(hash, key)
	if ferr != nil {
		return false, false, ferr
	}
	if found {
		switch behavior {
		case behaviorOverwrite:
			m.table.entries[idx].value = value
			m.version++
			return true, false, nil
		case behaviorThrowOnExisting:
			return false, false, ErrDuplicateKey
		default: // behaviorTryAdd
			return false, false, nil
		}
	}

	slot, serr := m.table.findInsertSlot(hash)
	if serr != nil {
		return false, false, serr
	}
	if m.table.growth == 0 && m.table.ctrl[slot] == ctrlEmpty {
		newBuckets, cerr := capacityToBuckets(m.table.count + 1)
		if cerr != nil {
			return false, false, cerr
		}
		m.table.resizeTo(newBuckets)
		slot, serr = m.table.findInsertSlot(hash)
		if serr != nil {
			return false, false, serr
		}
	}

	wasTombstone := m.table.ctrl[slot] == ctrlDeleted
	wasEmpty := m.table.ctrl[slot] == ctrlEmpty
	m.table.setControl(slot, h2(hash))
	m.table.entries[slot] = entry[K, V]{key: key, value: value}
	if wasEmpty {
		m.table.growth--
	}
	m.table.count++
	m.version++
	if wasTombstone {
		m.tolerantVersion++
	}
	return false, true, nil
}

// Get returns v for k, or ErrKeyNotFound (spec §6 `get(k)`).
func (m *Map[K, V]) Get(key K) (V, error) {
	var zero V
	if err := m.checkKey(key); err != nil {
		return zero, err
	}
	hash := m.table.comparer.Hash(key)
	idx, found, err := m.table.findBucket(hash, key)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, ErrKeyNotFound
	}
	return m.table.entries[idx].value, nil
}

// TryGetValue returns (v, true) or (zero, false), never an error for a
// plain miss (spec §6 `try_get(k)`).
func (m *Map[K, V]) TryGetValue(key K) (V, bool) {
	var zero V
	if isNilKey(key) {
		return zero, false
	}
	hash := m.table.comparer.Hash(key)
	idx, found, err := m.table.findBucket(hash, key)
	if err != nil || !found {
		return zero, false
	}
	return m.table.entries[idx].value, true
}

// ContainsKey reports whether k is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.TryGetValue(key)
	return ok
}

// ContainsValue is O(N), via the scanning iterator, using default equality
// (==) on V (spec §6: "ContainsValue is O(N) via scanning iterator; uses
// default equality on V"). Comparing through `any` sidesteps requiring a
// `comparable` constraint on V itself; it panics at runtime if V's dynamic
// type is not comparable (e.g. V is a slice or map type), matching Go's own
// == semantics.
func (m *Map[K, V]) ContainsValue(value V) bool {
	found := false
	m.Range(func(_ K, v V) bool {
		if any(v) == any(value) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Remove deletes k, reporting whether it was present (spec §6 `remove(k)`).
func (m *Map[K, V]) Remove(key K) bool {
	_, ok := m.RemoveWithValue(key)
	return ok
}

// RemoveWithValue deletes k, returning its value when present (spec §6
// `remove(k) -> v?`).
func (m *Map[K, V]) RemoveWithValue(key K) (V, bool) {
	var zero V
	if isNilKey(key) {
		return zero, false
	}
	hash := m.table.comparer.Hash(key)
	idx, found, err := m.table.findBucket(hash, key)
	if err != nil || !found {
		return zero, false
	}
	value := m.table.entries[idx].value
	m.table.erase(idx)
	// Pure erasure bumps only tolerant_version, not version (spec §4.G:
	// "Pure erasures increment tolerant_version but not version"), so an
	// in-flight iterator AND-refreshes instead of failing fast.
	m.tolerantVersion++
	return value, true
}

// Clear resets count/growth_left and refills controls with EMPTY, keeping
// storage (spec §6 `clear()`).
func (m *Map[K, V]) Clear() {
	m.table.clear()
	m.version++
	m.tolerantVersion++
}

// EnsureCapacity grows the table iff `count + growth_left < n`, returning
// the resulting load capacity (spec §4.F / §6 `ensure_capacity(n)`).
func (m *Map[K, V]) EnsureCapacity(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("swisstable: negative capacity %d: %w", n, ErrInvalidOperation)
	}
	if m.table.count+m.table.growth < uintptr(n) {
		newBuckets, err := capacityToBuckets(uintptr(n))
		if err != nil {
			return 0, err
		}
		m.table.resizeTo(newBuckets)
		m.version++
	}
	return int(loadCapacity(m.table.buckets)), nil
}

// TrimExcess shrinks the table to capacity-to-buckets(n); n=0 re-
// initializes to the empty singleton (spec §6 `trim_excess(n)`).
// Precondition: n >= Len().
func (m *Map[K, V]) TrimExcess(n int) (int, error) {
	if uintptr(n) < m.table.count {
		return 0, fmt.Errorf("swisstable: trim target %d below current size %d: %w", n, m.table.count, ErrInvalidOperation)
	}
	if n == 0 {
		m.table = newRawTable[K, V](0, m.table.comparer)
		m.version++
		return 0, nil
	}
	newBuckets, err := capacityToBuckets(uintptr(n))
	if err != nil {
		return 0, err
	}
	m.table.resizeTo(newBuckets)
	m.version++
	return int(loadCapacity(m.table.buckets)), nil
}

// Len is the number of FULL slots (count), O(1).
func (m *Map[K, V]) Len() int {
	return int(m.table.count)
}

// Cap is the current load capacity: the maximum count reachable without a
// further grow at this bucket count.
func (m *Map[K, V]) Cap() int {
	return int(loadCapacity(m.table.buckets))
}

// Stats reports ambient size/tombstone telemetry, adapted from the
// teacher's Stats type (stats.go).
func (m *Map[K, V]) Stats() Stats {
	buckets := m.table.buckets
	tombstones := m.table.tombstones()
	st := Stats{
		Size:         int(m.table.count),
		Tombstones:   int(tombstones),
		LoadCapacity: int(loadCapacity(buckets)),
		Buckets:      int(buckets),
	}
	if cap := loadCapacity(buckets); cap > 0 {
		st.TombstonesCapacityRatio = float32(tombstones) / float32(cap)
	}
	if m.table.count > 0 {
		st.TombstonesSizeRatio = float32(tombstones) / float32(m.table.count)
	}
	return st
}

// Clone copies the map, keeping its comparer, by array-copying
// controls/entries (spec §4.E "Cloning ... same comparer"); no entry is
// rehashed. CloneWithComparer is the rehashing path.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{table: m.table.cloneInto()}
}

// CloneWithComparer rehashes every live entry through the given comparer
// (spec §4.E "With a different comparer, rehash each FULL entry through
// Insert").
func (m *Map[K, V]) CloneWithComparer(c Comparer[K]) *Map[K, V] {
	dst := New[K, V](0, WithComparer[K, V](c))
	m.Range(func(k K, v V) bool {
		_, _, err := dst.table.insert(k, v, behaviorOverwrite)
		assert(err == nil, "CloneWithComparer: insert into a freshly sized table failed")
		return true
	})
	return dst
}

// Range calls f for every FULL (key, value), stopping early if f returns
// false. Built directly on the §4.G Iterator, so it shares the same
// fail-fast/tolerant-erase contract (spec [EXPANSION] "iteration
// convenience").
func (m *Map[K, V]) Range(f func(K, V) bool) error {
	it := m.NewIterator()
	for it.MoveNext() {
		k, v, err := it.Current()
		if err != nil {
			return err
		}
		if !f(k, v) {
			return nil
		}
	}
	return it.err
}
