package swisstable

import "encoding/binary"

// group is W consecutive control bytes loaded as a single machine word,
// scanned with the SWAR tricks the teacher uses in bits.go (matchH2,
// matchEmpty, matchEmptyOrDeleted), generalized here to free functions over
// an explicit load so a Group is never produced by a zero-value receiver
// (Design Note: default-initialization issue).
type group uint64

// loadGroup reads groupWidth bytes starting at ctrl[0]. Per spec, the caller
// guarantees ctrl has at least groupWidth bytes available (the control array
// is always B+groupWidth long).
func loadGroup(ctrl []byte) group {
	return group(binary.LittleEndian.Uint64(ctrl))
}

// matchByte returns a bitMask with lane i set iff control[i] == b.
func (g group) matchByte(b byte) bitMask {
	x := uint64(g) ^ (lsbBytes * uint64(b))
	return bitMask(((x - lsbBytes) &^ x) & msbBytes)
}

// matchGroup returns a bitMask with lane i set iff control[i] == other[i].
func (g group) matchGroup(other group) bitMask {
	x := uint64(g) ^ uint64(other)
	return bitMask(((x - lsbBytes) &^ x) & msbBytes)
}

// matchEmpty returns a bitMask with lane i set iff control[i] == EMPTY.
// EMPTY is 0xFF (MSB set, bit 0 set); DELETED is 0x80 (MSB set, bit 0
// clear). Shifting each byte's bit 0 into its own bit 7 (x<<7, masked to
// the MSB lane) and ANDing with the byte's actual bit 7 gives "MSB set
// AND bit 0 set", which is true only for EMPTY.
func (g group) matchEmpty() bitMask {
	x := uint64(g)
	return bitMask(x & (x << 7) & msbBytes)
}

// matchEmptyOrDeleted returns a bitMask with lane i set iff control[i] has
// its high bit set (EMPTY or DELETED).
func (g group) matchEmptyOrDeleted() bitMask {
	return bitMask(uint64(g) & msbBytes)
}

// matchFull is the complement of matchEmptyOrDeleted within the valid lane
// mask.
func (g group) matchFull() bitMask {
	return g.matchEmptyOrDeleted().invert()
}

// convertSpecialToEmptyAndFullToDeleted implements the byte-wise mapping
// EMPTY->EMPTY, DELETED->EMPTY, FULL->DELETED: the first half of an
// in-place tombstone drop (§4.B). Exposed as a primitive per spec; this
// table never rebuilds in place (growth always allocates fresh storage),
// so callers outside tests are not expected today.
func (g group) convertSpecialToEmptyAndFullToDeleted() group {
	x := uint64(g)
	var out uint64
	for i := 0; i < groupWidth; i++ {
		b := byte(x >> (8 * i))
		var nb byte
		switch b {
		case ctrlEmpty, ctrlDeleted:
			nb = ctrlEmpty
		default:
			nb = ctrlDeleted
		}
		out |= uint64(nb) << (8 * i)
	}
	return group(out)
}
