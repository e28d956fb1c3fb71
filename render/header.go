package render

import (
	"encoding/binary"
	"errors"

	"pkt.systems/ringlog/mem"
)

var (
	// ErrHeadInvalid means the head payload handle of an event no longer
	// resolves, so the event cannot be rendered at all.
	ErrHeadInvalid = errors.New("head payload handle is invalid")
	// ErrHeadTooSmall means the head payload cannot hold the message
	// handle and the decoration header word.
	ErrHeadTooSmall = errors.New("head payload shorter than two handles")
	// ErrHeadMisaligned means the head payload length is not a whole
	// number of handles.
	ErrHeadMisaligned = errors.New("head payload length not a multiple of the handle size")
	// ErrDecorationHeaderInvalid means the decoration-header handle at
	// index 1 does not resolve to a payload holding the three counts.
	ErrDecorationHeaderInvalid = errors.New("decoration header payload is invalid")
	// ErrOddDecorations means the decoration header announces an odd
	// number of decoration handles, which cannot form name/value pairs.
	ErrOddDecorations = errors.New("decoration handle count is odd")
	// ErrDecorationOverflow means the decoration header announces more
	// handles than the head payload carries.
	ErrDecorationOverflow = errors.New("decoration handle count exceeds head payload")
	// ErrDecorationSplit means the per-kind decoration counts do not sum
	// to the announced total.
	ErrDecorationSplit = errors.New("decoration counts do not sum to total")
)

// HeaderData is the decoded view of an event's head payload: the message
// template handle, the decoration name/value handle pairs, and the
// positional context argument handles.
type HeaderData struct {
	Message mem.PayloadHandle
	// DecorationHeader is the handle stored at index 1: a separate payload
	// carrying the three 16-bit decoration counts. The event owns it and
	// releases it alongside the head.
	DecorationHeader mem.PayloadHandle

	LocalConstDecorations  int
	GlobalConstDecorations int
	totalDecorations       int

	handles []byte
}

// DecorationPairs returns the number of name/value decoration pairs.
func (h *HeaderData) DecorationPairs() int {
	return h.totalDecorations / 2
}

// DecorationPair returns the name and value handles of pair i.
func (h *HeaderData) DecorationPair(i int) (name, value mem.PayloadHandle) {
	base := (2 + 2*i) * mem.HandleByteSize
	name = mem.PayloadHandle(binary.LittleEndian.Uint64(h.handles[base:]))
	value = mem.PayloadHandle(binary.LittleEndian.Uint64(h.handles[base+mem.HandleByteSize:]))
	return name, value
}

// ContextCount returns the number of positional context arguments.
func (h *HeaderData) ContextCount() int {
	return len(h.handles)/mem.HandleByteSize - 2 - h.totalDecorations
}

// ContextPayload returns the handle of context argument i.
func (h *HeaderData) ContextPayload(i int) mem.PayloadHandle {
	base := (2 + h.totalDecorations + i) * mem.HandleByteSize
	return mem.PayloadHandle(binary.LittleEndian.Uint64(h.handles[base:]))
}

// DecodeHeader resolves and validates the head payload of an event. All
// offsets are checked up front so the per-hole lookups stay bounds-safe.
func DecodeHeader(m *mem.Manager, head mem.PayloadHandle) (HeaderData, error) {
	buf, ok := m.Retrieve(head)
	if !ok {
		return HeaderData{}, ErrHeadInvalid
	}
	if len(buf)%mem.HandleByteSize != 0 {
		return HeaderData{}, ErrHeadMisaligned
	}
	if len(buf) < 2*mem.HandleByteSize {
		return HeaderData{}, ErrHeadTooSmall
	}
	h := HeaderData{
		Message:          mem.PayloadHandle(binary.LittleEndian.Uint64(buf)),
		DecorationHeader: mem.PayloadHandle(binary.LittleEndian.Uint64(buf[mem.HandleByteSize:])),
		handles:          buf,
	}
	word, ok := m.Retrieve(h.DecorationHeader)
	if !ok || len(word) < decorationWordSize {
		return HeaderData{}, ErrDecorationHeaderInvalid
	}
	local := int(binary.LittleEndian.Uint16(word))
	global := int(binary.LittleEndian.Uint16(word[2:]))
	total := int(binary.LittleEndian.Uint16(word[4:]))
	if total%2 != 0 {
		return HeaderData{}, ErrOddDecorations
	}
	if local+global > total {
		return HeaderData{}, ErrDecorationSplit
	}
	if (2+total)*mem.HandleByteSize > len(buf) {
		return HeaderData{}, ErrDecorationOverflow
	}
	h.LocalConstDecorations = local
	h.GlobalConstDecorations = global
	h.totalDecorations = total
	return h, nil
}

// DecorationWordSize is the byte size of the decoration-header payload:
// three little-endian 16-bit counts in declared order.
const DecorationWordSize = decorationWordSize

const decorationWordSize = 6

// EncodeDecorationWord packs the decoration-header payload whose handle is
// stored at index 1 of a head payload. dst must hold DecorationWordSize
// bytes.
func EncodeDecorationWord(dst []byte, localConst, globalConst, total int) {
	binary.LittleEndian.PutUint16(dst, uint16(localConst))
	binary.LittleEndian.PutUint16(dst[2:], uint16(globalConst))
	binary.LittleEndian.PutUint16(dst[4:], uint16(total))
}
