package render

import (
	"pkt.systems/ringlog/mem"
	"pkt.systems/ringlog/template"
)

// DecodeStatus is the outcome a typed decoder reports for a payload.
type DecodeStatus uint8

const (
	// DecodeUnknownType means the decoder does not claim this payload's
	// type tag; the registry keeps trying.
	DecodeUnknownType DecodeStatus = iota
	// DecodeSuccess means the decoder claimed the payload and wrote its
	// rendering to the output buffer.
	DecodeSuccess
	// DecodeFailed means the decoder claimed the payload but the payload
	// is malformed; rendering of the event aborts.
	DecodeFailed
)

// Decoder turns one typed binary payload into output bytes. A decoder
// inspects the payload's leading 8-byte type tag and returns
// DecodeUnknownType for tags it does not own.
type Decoder interface {
	Decode(out *Buffer, f *Formatter, payload []byte, m *mem.Manager, hole *template.ArgumentInfo) DecodeStatus
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(out *Buffer, f *Formatter, payload []byte, m *mem.Manager, hole *template.ArgumentInfo) DecodeStatus

func (fn DecoderFunc) Decode(out *Buffer, f *Formatter, payload []byte, m *mem.Manager, hole *template.ArgumentInfo) DecodeStatus {
	return fn(out, f, payload, m, hole)
}

// Registry is an ordered list of typed decoders. Decoders are tried in
// registration order until one claims the payload. An empty registry is
// valid; every payload then resolves to unknown.
type Registry struct {
	decoders []registryEntry
	nextID   DecoderToken
}

type registryEntry struct {
	id DecoderToken
	d  Decoder
}

// DecoderToken identifies a registration for later removal.
type DecoderToken int

// Register appends d to the dispatch order and returns its removal token.
func (r *Registry) Register(d Decoder) DecoderToken {
	r.nextID++
	r.decoders = append(r.decoders, registryEntry{id: r.nextID, d: d})
	return r.nextID
}

// Remove deletes the registration identified by t.
func (r *Registry) Remove(t DecoderToken) {
	for i, e := range r.decoders {
		if e.id == t {
			r.decoders = append(r.decoders[:i], r.decoders[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered decoders.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.decoders)
}

// Decode dispatches payload to the registered decoders in order.
func (r *Registry) Decode(out *Buffer, f *Formatter, payload []byte, m *mem.Manager, hole *template.ArgumentInfo) DecodeStatus {
	if r == nil {
		return DecodeUnknownType
	}
	for _, e := range r.decoders {
		switch st := e.d.Decode(out, f, payload, m, hole); st {
		case DecodeUnknownType:
			continue
		default:
			return st
		}
	}
	return DecodeUnknownType
}
