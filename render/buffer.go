package render

import (
	"strconv"
	"sync"
)

const (
	bufferDefaultCap = 1024
	bufferMaxCap     = 64 << 10
)

// Buffer is the append-only output buffer the rendering pipeline and the
// registered decoders write into. Buffers are pooled; obtain one with
// AcquireBuffer and return it with ReleaseBuffer once its contents have
// been handed to a sink.
type Buffer struct {
	buf []byte
}

var bufferPool = sync.Pool{
	New: func() any {
		return &Buffer{buf: make([]byte, 0, bufferDefaultCap)}
	},
}

// AcquireBuffer returns an empty pooled buffer.
func AcquireBuffer() *Buffer {
	b := bufferPool.Get().(*Buffer)
	b.buf = b.buf[:0]
	return b
}

// ReleaseBuffer returns b to the pool. Buffers that grew past the retention
// cap are shrunk back so one oversized render cannot pin memory.
func ReleaseBuffer(b *Buffer) {
	if b == nil {
		return
	}
	if cap(b.buf) > bufferMaxCap {
		b.buf = make([]byte, 0, bufferDefaultCap)
	} else {
		b.buf = b.buf[:0]
	}
	bufferPool.Put(b)
}

func (b *Buffer) reserve(n int) {
	if n <= 0 {
		return
	}
	need := len(b.buf) + n
	if need <= cap(b.buf) {
		return
	}
	newCap := max(cap(b.buf)*2+n, need)
	newBuf := make([]byte, len(b.buf), newCap)
	copy(newBuf, b.buf)
	b.buf = newBuf
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Bytes returns the accumulated bytes. The slice is valid until the next
// write or release.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// String copies the accumulated bytes into a string.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Reset truncates the buffer without releasing its backing array.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Truncate shortens the buffer to n bytes.
func (b *Buffer) Truncate(n int) {
	if n >= 0 && n <= len(b.buf) {
		b.buf = b.buf[:n]
	}
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.reserve(1)
	b.buf = append(b.buf, c)
}

// AppendBytes appends p verbatim.
func (b *Buffer) AppendBytes(p []byte) {
	if len(p) == 0 {
		return
	}
	b.reserve(len(p))
	b.buf = append(b.buf, p...)
}

// AppendString appends s verbatim.
func (b *Buffer) AppendString(s string) {
	if s == "" {
		return
	}
	b.reserve(len(s))
	b.buf = append(b.buf, s...)
}

// AppendInt appends the decimal form of n.
func (b *Buffer) AppendInt(n int64) {
	b.reserve(24)
	b.buf = strconv.AppendInt(b.buf, n, 10)
}

// AppendUint appends the decimal form of n.
func (b *Buffer) AppendUint(n uint64) {
	b.reserve(24)
	b.buf = strconv.AppendUint(b.buf, n, 10)
}

// AppendFloat appends the shortest representation of f.
func (b *Buffer) AppendFloat(f float64, bitSize int) {
	b.reserve(32)
	b.buf = strconv.AppendFloat(b.buf, f, 'g', -1, bitSize)
}

// AppendBool appends "true" or "false".
func (b *Buffer) AppendBool(v bool) {
	if v {
		b.AppendString("true")
	} else {
		b.AppendString("false")
	}
}

// AppendFunc hands the backing slice to an append-style helper that
// returns the extended slice (strconv, numfmt).
func (b *Buffer) AppendFunc(f func([]byte) []byte) {
	b.buf = f(b.buf)
}

// AppendPadded appends content honoring a composite-format field width: a
// positive alignment right-aligns (pads left), a negative one left-aligns.
func (b *Buffer) AppendPadded(content []byte, alignment int) {
	width := alignment
	if width < 0 {
		width = -width
	}
	pad := width - len(content)
	if pad < 0 {
		pad = 0
	}
	b.reserve(len(content) + pad)
	if alignment > 0 {
		for i := 0; i < pad; i++ {
			b.buf = append(b.buf, ' ')
		}
	}
	b.buf = append(b.buf, content...)
	if alignment < 0 {
		for i := 0; i < pad; i++ {
			b.buf = append(b.buf, ' ')
		}
	}
}
