package swisstable

import "math/bits"

// entry is a (K, V) slot. Its occupancy is determined exclusively by the
// control byte at the same index; the entry payload is meaningful only
// when that control byte is FULL (spec §3).
type entry[K any, V any] struct {
	key   K
	value V
}

// sharedEmptyCtrl is the singleton empty table's control array: W bytes,
// all EMPTY, immutable. Every rawTable with buckets==0 points at this same
// backing array; it must never be written to.
var sharedEmptyCtrl = func() []byte {
	b := make([]byte, groupWidth)
	for i := range b {
		b[i] = ctrlEmpty
	}
	return b
}()

// rawTable is the engine's storage: contiguous control bytes and entries,
// growth, rehash, slot search, erase (spec §4.E).
type rawTable[K comparable, V any] struct {
	ctrl     []byte        // len == buckets+groupWidth (or groupWidth, shared, when buckets==0)
	entries  []entry[K, V] // len == buckets
	buckets  uintptr       // B: 0 or a power of two
	count    uintptr       // number of FULL slots
	growth   uintptr       // growth_left
	comparer Comparer[K]
}

func newRawTable[K comparable, V any](buckets uintptr, comparer Comparer[K]) *rawTable[K, V] {
	if buckets == 0 {
		return &rawTable[K, V]{ctrl: sharedEmptyCtrl, comparer: comparer}
	}
	ctrl := make([]byte, buckets+groupWidth)
	for i := range ctrl {
		ctrl[i] = ctrlEmpty
	}
	return &rawTable[K, V]{
		ctrl:     ctrl,
		entries:  make([]entry[K, V], buckets),
		buckets:  buckets,
		growth:   loadCapacity(buckets),
		comparer: comparer,
	}
}

// bucketMask is B-1, or 0 when B==0 (spec §3).
func (t *rawTable[K, V]) bucketMask() uintptr {
	if t.buckets == 0 {
		return 0
	}
	return t.buckets - 1
}

// loadCapacity is the maximum count for a given bucket count: 0 for B=0,
// floor(B*7/8) otherwise (spec §3/GLOSSARY "Load capacity", end-to-end
// scenario 1's load_capacity(4)=3). A table must always keep at least one
// EMPTY control byte while non-empty (§8 invariant 5: FindBucket on an
// absent key terminates only by hitting an EMPTY lane); returning B itself
// for small B would let a table pack fully FULL, exactly the state that
// breaks termination — see DESIGN.md for the corrected resolution.
func loadCapacity(buckets uintptr) uintptr {
	if buckets == 0 {
		return 0
	}
	return buckets * 7 / 8
}

// capacityToBuckets is the exact capacity-to-buckets policy of spec §4.E.
func capacityToBuckets(capacity uintptr) (uintptr, error) {
	switch {
	case capacity < 4:
		return 4, nil
	case capacity < 8:
		return 8, nil
	case capacity <= 0x01FFFFFF:
		adjusted := capacity * 8 / 7
		return nextPowerOf2(adjusted), nil
	case capacity <= 0x37FFFFFF:
		return 0x4000_0000, nil
	default:
		return 0, ErrCapacityOverflow
	}
}

// nextPowerOf2 returns the smallest power of two >= v (v >= 1), adapted
// from the teacher's NextPowerOf2 (utils.go) to uintptr.
func nextPowerOf2(v uintptr) uintptr {
	if v <= 1 {
		return 1
	}
	return uintptr(1) << bits.Len64(uint64(v-1))
}

// maxGroupProbes bounds the number of group probes a single find may
// perform before it is treated as a termination bug (spec invariant 5:
// "FindBucket(k) terminates after at most B/W + 1 group probes").
func (t *rawTable[K, V]) maxGroupProbes() int {
	numGroups := int(t.buckets / groupWidth)
	if numGroups == 0 {
		numGroups = 1
	}
	return numGroups + 1
}

// setControl writes a control byte and keeps the trailing mirror region in
// sync (spec §8 invariant 1: controls[B+i] == controls[i] for i in
// [0,W)). When B < W the mirror region is longer than the table, so the
// byte repeats every B positions through [B, B+W).
func (t *rawTable[K, V]) setControl(idx uintptr, b byte) {
	t.ctrl[idx] = b
	for m := idx + t.buckets; t.buckets > 0 && m < t.buckets+groupWidth; m += t.buckets {
		t.ctrl[m] = b
	}
}

// findBucket implements §4.E FindBucket: probe groups matching h2, compare
// keys at candidate lanes, terminate on the first EMPTY lane seen.
func (t *rawTable[K, V]) findBucket(hash uint64, key K) (idx uintptr, found bool, err error) {
	if t.buckets == 0 {
		return 0, false, nil
	}
	mask := t.bucketMask()
	seq := newProbeSeq(hash, mask)
	target := h2(hash)
	for attempt := 0; attempt < t.maxGroupProbes(); attempt++ {
		pos := seq.offset()
		g := loadGroup(t.ctrl[pos:])
		matches := g.matchByte(target)
		for matches.anyBitSet() {
			lane := matches.lowestSetBitNonzero()
			cand := (pos + uintptr(lane)) & mask
			if t.comparer.Equal(t.entries[cand].key, key) {
				return cand, true, nil
			}
			matches = matches.removeLowestBit()
		}
		if g.matchEmpty().anyBitSet() {
			return 0, false, nil
		}
		seq.next()
	}
	return 0, false, ErrConcurrentModification
}

// findInsertSlot implements §4.E Find-insert-slot: probe groups, take the
// first EMPTY-or-DELETED lane. When B<groupWidth, a group load reads mirror
// bytes as well as real ones; if a candidate lane ever maps (after masking)
// to a slot that is still FULL, restart the scan from byte 0, which finds a
// real empty slot on the second pass.
func (t *rawTable[K, V]) findInsertSlot(hash uint64) (uintptr, error) {
	mask := t.bucketMask()
	seq := newProbeSeq(hash, mask)
	for attempt := 0; attempt < t.maxGroupProbes(); attempt++ {
		pos := seq.offset()
		g := loadGroup(t.ctrl[pos:])
		if m := g.matchEmptyOrDeleted(); m.anyBitSet() {
			lane := m.lowestSetBitNonzero()
			cand := (pos + uintptr(lane)) & mask
			if isFull(t.ctrl[cand]) {
				return t.findInsertSlotFromZero()
			}
			return cand, nil
		}
		seq.next()
	}
	return 0, ErrConcurrentModification
}

func (t *rawTable[K, V]) findInsertSlotFromZero() (uintptr, error) {
	mask := t.bucketMask()
	g := loadGroup(t.ctrl[0:])
	m := g.matchEmptyOrDeleted()
	if !m.anyBitSet() {
		return 0, ErrConcurrentModification
	}
	lane := m.lowestSetBitNonzero()
	return uintptr(lane) & mask, nil
}

// insertBehavior selects how insert treats an already-present key.
type insertBehavior int

const (
	behaviorOverwrite insertBehavior = iota
	behaviorThrowOnExisting
	behaviorTryAdd
)

// insert implements §4.E Insert. It returns replaced (an existing value was
// overwritten), added (a new slot was written), and an error.
func (t *rawTable[K, V]) insert(key K, value V, behavior insertBehavior) (replaced, added bool, err error) {
	hash := t.comparer.Hash(key)
	idx, found, ferr := t.findBucket(hash, key)
	if ferr != nil {
		return false, false, ferr
	}
	if found {
		switch behavior {
		case behaviorOverwrite:
			t.entries[idx].value = value
			return true, false, nil
		case behaviorThrowOnExisting:
			return false, false, ErrDuplicateKey
		default: // behaviorTryAdd
			return false, false, nil
		}
	}

	slot, serr := t.findInsertSlot(hash)
	if serr != nil {
		return false, false, serr
	}
	if t.growth == 0 && t.ctrl[slot] == ctrlEmpty {
		newBuckets, cerr := capacityToBuckets(t.count + 1)
		if cerr != nil {
			return false, false, cerr
		}
		t.resizeTo(newBuckets)
		slot, serr = t.findInsertSlot(hash)
		if serr != nil {
			return false, false, serr
		}
	}

	wasEmpty := t.ctrl[slot] == ctrlEmpty
	t.setControl(slot, h2(hash))
	t.entries[slot] = entry[K, V]{key: key, value: value}
	if wasEmpty {
		t.growth--
	}
	t.count++
	return false, true, nil
}

// erase implements §4.E Erase. idx must name a FULL slot.
func (t *rawTable[K, V]) erase(idx uintptr) {
	assert(isFull(t.ctrl[idx]), "erase: slot %d is not FULL", idx)

	mask := t.bucketMask()
	before := (idx - groupWidth) & mask
	emptyBefore := loadGroup(t.ctrl[before:]).matchEmpty()
	emptyAfter := loadGroup(t.ctrl[idx:]).matchEmpty()

	if emptyBefore.leadingZeros()+emptyAfter.trailingZeros() >= groupWidth {
		t.setControl(idx, ctrlDeleted)
	} else {
		t.setControl(idx, ctrlEmpty)
		t.growth++
	}

	var zero entry[K, V]
	t.entries[idx] = zero
	t.count--
}

// resizeTo allocates a fresh raw table of the given bucket count and
// re-inserts every live entry, recomputing each hash (spec §4.E Growth).
// Used both by growth (buckets always increases) and by TrimExcess
// (buckets may be smaller, equal, or larger than the current size).
func (t *rawTable[K, V]) resizeTo(buckets uintptr) {
	fresh := newRawTable[K, V](buckets, t.comparer)
	for i := uintptr(0); i < t.buckets; i++ {
		if !isFull(t.ctrl[i]) {
			continue
		}
		e := t.entries[i]
		hash := t.comparer.Hash(e.key)
		slot, err := fresh.findInsertSlot(hash)
		assert(err == nil, "resizeTo: findInsertSlot failed on a freshly sized table")
		fresh.setControl(slot, h2(hash))
		fresh.entries[slot] = e
		fresh.growth--
		fresh.count++
	}
	*t = *fresh
}

// clear refills controls with EMPTY and resets count/growth_left without
// releasing storage (spec §3 Lifecycle).
func (t *rawTable[K, V]) clear() {
	if t.buckets == 0 {
		return
	}
	for i := range t.ctrl {
		t.ctrl[i] = ctrlEmpty
	}
	var zero entry[K, V]
	for i := range t.entries {
		t.entries[i] = zero
	}
	t.count = 0
	t.growth = loadCapacity(t.buckets)
}

// cloneInto array-copies control bytes and, for every FULL index, the
// entry — the same-comparer fast path of spec §4.E "Cloning". No rehashing
// is performed.
func (t *rawTable[K, V]) cloneInto() *rawTable[K, V] {
	clone := &rawTable[K, V]{
		buckets:  t.buckets,
		count:    t.count,
		growth:   t.growth,
		comparer: t.comparer,
	}
	if t.buckets == 0 {
		clone.ctrl = sharedEmptyCtrl
		return clone
	}
	clone.ctrl = make([]byte, len(t.ctrl))
	copy(clone.ctrl, t.ctrl)
	clone.entries = make([]entry[K, V], len(t.entries))
	copy(clone.entries, t.entries)
	return clone
}

// tombstones derives the outstanding-tombstone count from the accounting
// count + growth_left + tombstones == load_capacity(B): an insert into an
// EMPTY slot consumes growth_left, and an erase that leaves DELETED does not
// return it.
func (t *rawTable[K, V]) tombstones() uintptr {
	return loadCapacity(t.buckets) - t.growth - t.count
}
