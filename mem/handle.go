package mem

// PayloadHandle identifies one allocated blob in a Manager. It packs a slot
// index in the low 32 bits and the slot's generation at allocation time in
// the high 32 bits. Generations start at 1, so the zero handle never matches
// a live slot and can be used as a nil value.
//
// A handle stays valid until the blob is released. Once the slot is recycled
// its generation advances, which permanently invalidates every handle issued
// for the previous occupancy: Retrieve on such a handle reports "not found"
// instead of aliasing whatever the slot holds now.
type PayloadHandle uint64

// NilHandle is the invalid zero handle.
const NilHandle PayloadHandle = 0

func makeHandle(slot, generation uint32) PayloadHandle {
	return PayloadHandle(uint64(generation)<<32 | uint64(slot))
}

func (h PayloadHandle) slot() uint32 {
	return uint32(h)
}

func (h PayloadHandle) generation() uint32 {
	return uint32(h >> 32)
}

// IsNil reports whether h is the zero handle.
func (h PayloadHandle) IsNil() bool {
	return h == NilHandle
}

// HandleByteSize is the encoded size of a PayloadHandle in a disjointed
// buffer (little-endian uint64).
const HandleByteSize = 8
