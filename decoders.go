package ringlog

import (
	"encoding/binary"
	"math"
	"strconv"

	"pkt.systems/ringlog/mem"
	"pkt.systems/ringlog/numfmt"
	"pkt.systems/ringlog/render"
	"pkt.systems/ringlog/template"
)

// DefaultRegistry returns a decoder registry covering the closed primitive
// set produced by encodeValue. Callers may register further decoders for
// their own tags; registration must finish before rendering starts.
func DefaultRegistry() *render.Registry {
	r := &render.Registry{}
	r.Register(render.DecoderFunc(decodeInteger))
	r.Register(render.DecoderFunc(decodeFloat))
	r.Register(render.DecoderFunc(decodeBool))
	r.Register(render.DecoderFunc(decodeStringLike))
	return r
}

func payloadTag(payload []byte) (uint64, bool) {
	if len(payload) < tagSize {
		return 0, false
	}
	return binary.LittleEndian.Uint64(payload), true
}

func decodeInteger(out *render.Buffer, f *render.Formatter, payload []byte, _ *mem.Manager, hole *template.ArgumentInfo) render.DecodeStatus {
	tag, ok := payloadTag(payload)
	if !ok {
		return render.DecodeUnknownType
	}
	var (
		signed bool
		width  int
		v      int64
		u      uint64
	)
	body := payload[tagSize:]
	switch tag {
	case TagInt8, TagInt16, TagInt32, TagInt64:
		signed = true
	case TagUint8, TagUint16, TagUint32, TagUint64:
	default:
		return render.DecodeUnknownType
	}
	switch tag {
	case TagInt8, TagUint8:
		width = 1
	case TagInt16, TagUint16:
		width = 2
	case TagInt32, TagUint32:
		width = 4
	default:
		width = 8
	}
	if len(body) < width {
		return render.DecodeFailed
	}
	switch tag {
	case TagInt8:
		v = int64(int8(body[0]))
	case TagInt16:
		v = int64(int16(binary.LittleEndian.Uint16(body)))
	case TagInt32:
		v = int64(int32(binary.LittleEndian.Uint32(body)))
	case TagInt64:
		v = int64(binary.LittleEndian.Uint64(body))
	case TagUint8:
		u = uint64(body[0])
	case TagUint16:
		u = uint64(binary.LittleEndian.Uint16(body))
	case TagUint32:
		u = uint64(binary.LittleEndian.Uint32(body))
	case TagUint64:
		u = binary.LittleEndian.Uint64(body)
	}
	if f.JSON() {
		// formats and alignment would break the JSON number token
		if signed {
			out.AppendInt(v)
		} else {
			out.AppendUint(u)
		}
		return render.DecodeSuccess
	}
	fm := numfmt.ParseFormat(string(hole.Format))
	out.AppendFunc(func(dst []byte) []byte {
		if signed {
			return numfmt.AppendInt(dst, v, fm, hole.Alignment)
		}
		return numfmt.AppendUint(dst, u, fm, hole.Alignment)
	})
	return render.DecodeSuccess
}

func decodeFloat(out *render.Buffer, f *render.Formatter, payload []byte, _ *mem.Manager, hole *template.ArgumentInfo) render.DecodeStatus {
	tag, ok := payloadTag(payload)
	if !ok {
		return render.DecodeUnknownType
	}
	var (
		v       float64
		bitSize int
	)
	body := payload[tagSize:]
	switch tag {
	case TagFloat32:
		if len(body) < 4 {
			return render.DecodeFailed
		}
		v = float64(math.Float32frombits(binary.LittleEndian.Uint32(body)))
		bitSize = 32
	case TagFloat64:
		if len(body) < 8 {
			return render.DecodeFailed
		}
		v = math.Float64frombits(binary.LittleEndian.Uint64(body))
		bitSize = 64
	default:
		return render.DecodeUnknownType
	}
	if f.JSON() {
		// JSON has no NaN/Inf literals
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out.AppendString("null")
		} else {
			out.AppendFloat(v, bitSize)
		}
		return render.DecodeSuccess
	}
	var scratch [32]byte
	text := strconv.AppendFloat(scratch[:0], v, 'g', -1, bitSize)
	out.AppendPadded(text, hole.Alignment)
	return render.DecodeSuccess
}

func decodeBool(out *render.Buffer, f *render.Formatter, payload []byte, _ *mem.Manager, hole *template.ArgumentInfo) render.DecodeStatus {
	tag, ok := payloadTag(payload)
	if !ok || tag != TagBool {
		return render.DecodeUnknownType
	}
	body := payload[tagSize:]
	if len(body) < 1 {
		return render.DecodeFailed
	}
	text := "false"
	if body[0] != 0 {
		text = "true"
	}
	if f.JSON() {
		out.AppendString(text)
		return render.DecodeSuccess
	}
	out.AppendPadded([]byte(text), hole.Alignment)
	return render.DecodeSuccess
}

const hexDigits = "0123456789abcdef"

func decodeStringLike(out *render.Buffer, f *render.Formatter, payload []byte, _ *mem.Manager, hole *template.ArgumentInfo) render.DecodeStatus {
	tag, ok := payloadTag(payload)
	if !ok {
		return render.DecodeUnknownType
	}
	if tag != TagString && tag != TagBytes {
		return render.DecodeUnknownType
	}
	body := payload[tagSize:]
	if len(body) < 4 {
		return render.DecodeFailed
	}
	n := int(binary.LittleEndian.Uint32(body))
	if n < 0 || 4+n > len(body) {
		return render.DecodeFailed
	}
	data := body[4 : 4+n]
	if tag == TagString {
		if f.JSON() {
			f.AppendStringValue(out, data)
		} else if hole.Alignment != 0 {
			out.AppendPadded(render.TrimNUL(data), hole.Alignment)
		} else {
			out.AppendBytes(render.TrimNUL(data))
		}
		return render.DecodeSuccess
	}
	if f.JSON() {
		out.AppendByte('"')
	}
	out.AppendString("0x")
	for _, c := range data {
		out.AppendByte(hexDigits[c>>4])
		out.AppendByte(hexDigits[c&0x0f])
	}
	if f.JSON() {
		out.AppendByte('"')
	}
	return render.DecodeSuccess
}
