package render

import (
	"encoding/binary"
	"math/bits"
)

const (
	asciiHighBits    uint64 = 0x8080808080808080
	repeatOnes       uint64 = 0x0101010101010101
	controlThreshold uint64 = 0x2020202020202020
	quoteRepeated    uint64 = 0x2222222222222222
	bslashRepeated   uint64 = 0x5c5c5c5c5c5c5c5c
	delRepeated      uint64 = 0x7f7f7f7f7f7f7f7f
	c2LeadRepeated   uint64 = 0xc2c2c2c2c2c2c2c2
)

func chunkEqualMask(chunk, target uint64) uint64 {
	x := chunk ^ target
	return (x - repeatOnes) & ^x & asciiHighBits
}

// chunkJSONAttentionMask flags bytes a JSON string cannot carry verbatim:
// controls below 0x20 (including NUL), quote, backslash, DEL, and the 0xC2
// lead byte that may introduce a C1 control.
func chunkJSONAttentionMask(chunk uint64) uint64 {
	mask := (chunk - controlThreshold) & ^chunk & asciiHighBits
	mask |= chunkEqualMask(chunk, quoteRepeated)
	mask |= chunkEqualMask(chunk, bslashRepeated)
	mask |= chunkEqualMask(chunk, delRepeated)
	mask |= chunkEqualMask(chunk, c2LeadRepeated)
	return mask
}

var jsonAttention = func() (t [256]bool) {
	for c := 0; c < 0x20; c++ {
		t[c] = true
	}
	t['"'] = true
	t['\\'] = true
	t[0x7f] = true
	t[0xc2] = true
	return
}()

const hexDigits = "0123456789abcdef"

// AppendEscapedJSON appends s as JSON string content (no surrounding
// quotes). A NUL byte terminates the string; everything after it is
// dropped. C1 controls arriving as the UTF-8 pair 0xC2 0x80..0x9F are
// escaped as a single \u00xx sequence.
func AppendEscapedJSON(b *Buffer, s []byte) {
	n := len(s)
	lastSafe := 0
	scan := 0
	for scan+8 <= n {
		chunk := binary.LittleEndian.Uint64(s[scan:])
		mask := chunkJSONAttentionMask(chunk)
		if mask == 0 {
			scan += 8
			continue
		}
		cursor := scan
		for mask != 0 {
			offset := bits.TrailingZeros64(mask) >> 3
			mask &^= uint64(0x80) << (offset * 8)
			pos := scan + offset
			if pos < cursor {
				continue
			}
			if lastSafe < pos {
				b.AppendBytes(s[lastSafe:pos])
			}
			consumed, stop := appendAttentionByte(b, s, pos)
			if stop {
				return
			}
			cursor = pos + consumed
			lastSafe = cursor
		}
		scan = max(scan+8, cursor)
	}
	for scan < n {
		c := s[scan]
		if !jsonAttention[c] {
			scan++
			continue
		}
		if lastSafe < scan {
			b.AppendBytes(s[lastSafe:scan])
		}
		consumed, stop := appendAttentionByte(b, s, scan)
		if stop {
			return
		}
		scan += consumed
		lastSafe = scan
	}
	if lastSafe < n {
		b.AppendBytes(s[lastSafe:])
	}
}

// appendAttentionByte escapes the flagged byte at s[pos] and reports how
// many input bytes it consumed and whether a NUL terminated the string.
func appendAttentionByte(b *Buffer, s []byte, pos int) (consumed int, stop bool) {
	c := s[pos]
	switch c {
	case 0x00:
		return 0, true
	case '"', '\\':
		b.reserve(2)
		b.buf = append(b.buf, '\\', c)
	case '\b':
		b.AppendString(`\b`)
	case '\f':
		b.AppendString(`\f`)
	case '\n':
		b.AppendString(`\n`)
	case '\r':
		b.AppendString(`\r`)
	case '\t':
		b.AppendString(`\t`)
	case 0xc2:
		if pos+1 < len(s) && s[pos+1] >= 0x80 && s[pos+1] <= 0x9f {
			appendUnicodeEscape(b, s[pos+1])
			return 2, false
		}
		// valid lead of a non-control sequence, pass through
		b.AppendByte(c)
	default:
		appendUnicodeEscape(b, c)
	}
	return 1, false
}

func appendUnicodeEscape(b *Buffer, c byte) {
	b.reserve(6)
	b.buf = append(b.buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
}

// TrimNUL returns s up to its first NUL byte, for text-mode output where
// payload capacity may exceed the logical string length.
func TrimNUL(s []byte) []byte {
	for i, c := range s {
		if c == 0 {
			return s[:i]
		}
	}
	return s
}
