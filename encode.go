package ringlog

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"pkt.systems/ringlog/mem"
)

// Type tags identifying the binary layout of an argument payload. Every
// payload starts with its tag as a little-endian 8-byte word; string-like
// payloads follow it with a 4-byte byte length before the raw bytes, all
// other types with the value itself in little-endian fixed width.
const (
	TagBool uint64 = iota + 1
	TagInt8
	TagInt16
	TagInt32
	TagInt64
	TagUint8
	TagUint16
	TagUint32
	TagUint64
	TagFloat32
	TagFloat64
	TagString
	TagBytes
)

const tagSize = 8

func encodeFixed(m *mem.Manager, tag uint64, width int, fill func([]byte)) mem.PayloadHandle {
	h, buf := m.Allocate(tagSize + width)
	if h.IsNil() {
		return mem.NilHandle
	}
	binary.LittleEndian.PutUint64(buf, tag)
	fill(buf[tagSize:])
	return h
}

func encodeStringLike(m *mem.Manager, tag uint64, s []byte) mem.PayloadHandle {
	h, buf := m.Allocate(tagSize + 4 + len(s))
	if h.IsNil() {
		return mem.NilHandle
	}
	binary.LittleEndian.PutUint64(buf, tag)
	binary.LittleEndian.PutUint32(buf[tagSize:], uint32(len(s)))
	copy(buf[tagSize+4:], s)
	return h
}

// encodeRaw stores bytes with no tag, used for message text and decoration
// names.
func encodeRaw(m *mem.Manager, s string) mem.PayloadHandle {
	if s == "" {
		s = "\x00"
	}
	h, buf := m.Allocate(len(s))
	if h.IsNil() {
		return mem.NilHandle
	}
	copy(buf, s)
	return h
}

// encodeValue builds the tagged payload for one log argument. Types outside
// the closed primitive set are stringified.
func encodeValue(m *mem.Manager, v any) mem.PayloadHandle {
	switch x := v.(type) {
	case bool:
		return encodeFixed(m, TagBool, 1, func(b []byte) {
			if x {
				b[0] = 1
			}
		})
	case int8:
		return encodeFixed(m, TagInt8, 1, func(b []byte) { b[0] = byte(x) })
	case int16:
		return encodeFixed(m, TagInt16, 2, func(b []byte) {
			binary.LittleEndian.PutUint16(b, uint16(x))
		})
	case int32:
		return encodeFixed(m, TagInt32, 4, func(b []byte) {
			binary.LittleEndian.PutUint32(b, uint32(x))
		})
	case int64:
		return encodeFixed(m, TagInt64, 8, func(b []byte) {
			binary.LittleEndian.PutUint64(b, uint64(x))
		})
	case int:
		return encodeFixed(m, TagInt64, 8, func(b []byte) {
			binary.LittleEndian.PutUint64(b, uint64(x))
		})
	case uint8:
		return encodeFixed(m, TagUint8, 1, func(b []byte) { b[0] = x })
	case uint16:
		return encodeFixed(m, TagUint16, 2, func(b []byte) {
			binary.LittleEndian.PutUint16(b, x)
		})
	case uint32:
		return encodeFixed(m, TagUint32, 4, func(b []byte) {
			binary.LittleEndian.PutUint32(b, x)
		})
	case uint64:
		return encodeFixed(m, TagUint64, 8, func(b []byte) {
			binary.LittleEndian.PutUint64(b, x)
		})
	case uint:
		return encodeFixed(m, TagUint64, 8, func(b []byte) {
			binary.LittleEndian.PutUint64(b, uint64(x))
		})
	case float32:
		return encodeFixed(m, TagFloat32, 4, func(b []byte) {
			binary.LittleEndian.PutUint32(b, math.Float32bits(x))
		})
	case float64:
		return encodeFixed(m, TagFloat64, 8, func(b []byte) {
			binary.LittleEndian.PutUint64(b, math.Float64bits(x))
		})
	case string:
		return encodeStringLike(m, TagString, []byte(x))
	case []byte:
		return encodeStringLike(m, TagBytes, x)
	case time.Duration:
		return encodeStringLike(m, TagString, []byte(x.String()))
	case error:
		return encodeStringLike(m, TagString, []byte(x.Error()))
	case fmt.Stringer:
		return encodeStringLike(m, TagString, []byte(x.String()))
	case nil:
		return encodeStringLike(m, TagString, []byte("<nil>"))
	default:
		return encodeStringLike(m, TagString, fmt.Appendf(nil, "%v", v))
	}
}
