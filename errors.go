package swisstable

import "errors"

// Error kinds (spec §7). Sentinel values in the manner of the teacher's
// ErrTableFull (table.go), checkable with errors.Is; operations that want
// to attach context (a key, a requested capacity) wrap these with
// fmt.Errorf("...: %w", ErrX).
var (
	// ErrNullKey is returned when a nil key is passed where a key is
	// required. Only reachable when K is instantiated with a nilable type
	// (a pointer, interface, map, slice, channel, or func) and the
	// supplied value is nil; for non-nilable K (int, string, arrays of
	// these, ...) this error can never occur.
	ErrNullKey = errors.New("swisstable: nil key")

	// ErrKeyNotFound is returned by an indexer-style read miss.
	ErrKeyNotFound = errors.New("swisstable: key not found")

	// ErrDuplicateKey is returned by Add when the key is already present.
	ErrDuplicateKey = errors.New("swisstable: key already exists")

	// ErrCapacityOverflow is returned when growth would exceed 2^30
	// buckets, or when the capacity-to-buckets arithmetic itself would
	// overflow.
	ErrCapacityOverflow = errors.New("swisstable: capacity overflow")

	// ErrConcurrentModification is returned when an iterator's captured
	// version no longer matches the map's current version, or when a
	// probe sequence exceeds its termination bound (§5: "the
	// implementation must break out of an insert probe loop that
	// otherwise would not terminate ... and signal
	// ConcurrentModification").
	ErrConcurrentModification = errors.New("swisstable: concurrent modification")

	// ErrInvalidOperation is returned by Iterator.Current when called
	// before the first MoveNext or after MoveNext has returned false.
	ErrInvalidOperation = errors.New("swisstable: invalid operation")
)
