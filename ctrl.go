package swisstable

// ctrl is the one-byte-per-slot state machine described by the control-byte
// encoding: the top bit is the "special" marker (0 = FULL, 1 = EMPTY or
// DELETED), and the low 7 bits carry h2 when the slot is FULL.
const (
	ctrlEmpty   byte = 0b1111_1111
	ctrlDeleted byte = 0b1000_0000
)

// groupWidth is W: the number of control bytes scanned together as one
// group. The teacher and every SWAR sibling in the pack (crn4/swiss,
// homier/stablemap) use a single 64-bit word's worth of control bytes.
const groupWidth = 8

// isFull reports whether b encodes a live slot.
func isFull(b byte) bool {
	return b&0x80 == 0
}

// isSpecial reports whether b is EMPTY or DELETED (i.e. not FULL).
func isSpecial(b byte) bool {
	return b&0x80 != 0
}

// specialIsEmpty reports whether a special (non-FULL) control byte is EMPTY
// rather than DELETED. Only meaningful when isSpecial(b) is true.
func specialIsEmpty(b byte) bool {
	return b&0x01 != 0
}

// h1 returns the primary hash, unchanged: the initial probe position is
// h1(hash) AND bucket_mask.
func h1(hash uint64) uintptr {
	return uintptr(hash)
}

// h2 returns the secondary hash: the top 7 bits of the hash shifted into the
// low byte, so the result's top bit is always 0 (a valid FULL control byte).
func h2(hash uint64) byte {
	return byte(hash>>57) & 0x7F
}
