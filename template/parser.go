// Package template scans raw UTF-8 message bytes for {Hole} syntax without
// copying. FindNextSegment yields alternating literal and hole segments;
// ParseHole interprets one hole body into an ArgumentInfo.
package template

import (
	"unicode/utf8"

	"pkt.systems/ringlog/mem"
)

// Outcome tells the caller what follows the literal segment returned by
// FindNextSegment.
type Outcome uint8

const (
	// NoMoreHoles means the literal segment runs to the end of the buffer.
	NoMoreHoles Outcome = iota
	// FoundHole means the hole segment covers a {...} span, braces included.
	FoundHole
	// EscapedOpenBrace means the hole segment covers a {{ pair; emit one {.
	EscapedOpenBrace
	// EscapedCloseBrace means the hole segment covers a }} pair; emit one }.
	EscapedCloseBrace
)

// FindNextSegment scans buf from offset `from` and returns the literal span
// to emit verbatim, the span of the next hole or escape pair, and the
// outcome. The caller resumes scanning at the hole segment's End.
//
// Escape pairs {{ and }} produce one literal brace each. A lone { is closed
// by the first } that follows, with no escape awareness inside, so {{{0}}}
// parses as a literal {, the hole {0}, and a literal }. A { with no closing
// } is ordinary literal text. Trailing NUL padding at the end of the buffer
// is trimmed from the final literal, since payload buffers may be
// over-allocated.
func FindNextSegment(buf []byte, from int) (literal, hole mem.Segment, outcome Outcome) {
	i := from
	for i < len(buf) {
		c := buf[i]
		if c == '{' {
			literal = mem.Segment{Offset: from, Length: i - from}
			if i+1 < len(buf) && buf[i+1] == '{' {
				return literal, mem.Segment{Offset: i, Length: 2}, EscapedOpenBrace
			}
			if end := closeBrace(buf, i+1); end >= 0 {
				return literal, mem.Segment{Offset: i, Length: end - i + 1}, FoundHole
			}
			break
		}
		if c == '}' && i+1 < len(buf) && buf[i+1] == '}' {
			literal = mem.Segment{Offset: from, Length: i - from}
			return literal, mem.Segment{Offset: i, Length: 2}, EscapedCloseBrace
		}
		if c < utf8.RuneSelf {
			i++
			continue
		}
		_, size := utf8.DecodeRune(buf[i:])
		i += size
	}
	end := len(buf)
	for end > from && buf[end-1] == 0 {
		end--
	}
	return mem.Segment{Offset: from, Length: end - from}, mem.Segment{}, NoMoreHoles
}

func closeBrace(buf []byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == '}' {
			return i
		}
	}
	return -1
}
