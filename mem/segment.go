package mem

// Segment is an (offset, length) view over a byte buffer. It carries no
// reference to the buffer itself so it can be stored and compared cheaply;
// callers re-bind it with Slice when they need the bytes.
type Segment struct {
	Offset int
	Length int
}

// End returns the exclusive end offset of the segment.
func (s Segment) End() int {
	return s.Offset + s.Length
}

// Empty reports whether the segment covers zero bytes.
func (s Segment) Empty() bool {
	return s.Length <= 0
}

// Slice re-binds the segment against buf. The segment must lie within buf.
func (s Segment) Slice(buf []byte) []byte {
	return buf[s.Offset : s.Offset+s.Length]
}

// Shrink returns a segment with n bytes trimmed from the tail. Shrinking past
// zero yields an empty segment at the same offset.
func (s Segment) Shrink(n int) Segment {
	if n >= s.Length {
		return Segment{Offset: s.Offset}
	}
	return Segment{Offset: s.Offset, Length: s.Length - n}
}
