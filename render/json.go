package render

import (
	"bytes"
	"strconv"

	"pkt.systems/ringlog/template"
)

// RenderJSON renders msg as one JSON object: Timestamp, Level, the raw
// message template, an optional Stacktrace, and a Properties object with
// one entry per context argument and decoration pair.
func (p *Pipeline) RenderJSON(out *Buffer, msg LogMessage) error {
	h, messageBuf, err := p.decodeHead(msg)
	if err != nil {
		return err
	}
	f := &Formatter{Style: StyleJSON}
	out.AppendString(`{"Timestamp":"`)
	AppendTimestamp(out, msg.Timestamp)
	out.AppendString(`","Level":"`)
	out.AppendString(LevelString(msg.Level))
	out.AppendString(`","Message":"`)
	AppendEscapedJSON(out, messageBuf)
	out.AppendByte('"')
	if msg.StackTraceID != 0 && p.Stack != nil {
		scratch := AcquireBuffer()
		p.Stack.AppendStackTraceText(msg.StackTraceID, scratch)
		out.AppendString(`,"Stacktrace":"`)
		AppendEscapedJSON(out, scratch.Bytes())
		out.AppendByte('"')
		ReleaseBuffer(scratch)
	}
	out.AppendString(`,"Properties":{`)
	if err := p.appendJSONProperties(out, f, &h, messageBuf); err != nil {
		return err
	}
	out.AppendString("}}")
	return nil
}

// appendJSONProperties walks the message's holes and the decoration pairs
// and emits one property per unique key, first occurrence winning.
// Unclaimed type tags drop the whole entry rather than emit invalid JSON.
func (p *Pipeline) appendJSONProperties(out *Buffer, f *Formatter, h *HeaderData, messageBuf []byte) error {
	var (
		res   holeResolver
		seen  [][]byte
		wrote bool
	)
	dup := func(key []byte) bool {
		for _, s := range seen {
			if bytes.Equal(s, key) {
				return true
			}
		}
		seen = append(seen, key)
		return false
	}
	emit := func(key []byte, write func() (DecodeStatus, error)) error {
		if dup(key) {
			return nil
		}
		mark := out.Len()
		if wrote {
			out.AppendByte(',')
		}
		f.AppendKey(out, key)
		st, err := write()
		if err != nil {
			return err
		}
		if st != DecodeSuccess {
			out.Truncate(mark)
			return nil
		}
		wrote = true
		return nil
	}

	pos := 0
	for {
		_, hole, outcome := template.FindNextSegment(messageBuf, pos)
		if outcome == template.NoMoreHoles {
			break
		}
		if outcome == template.FoundHole {
			arg := template.ParseHole(hole.Slice(messageBuf))
			if !arg.Valid {
				p.Diag.addParseFailure()
			} else if arg.Type == template.HoleUserDefined {
				idx := res.resolve(&arg)
				if err := p.emitJSONContextArg(out, f, h, idx, &arg, emit); err != nil {
					return err
				}
			}
		}
		pos = hole.End()
	}

	for i := 0; i < h.DecorationPairs(); i++ {
		nameHandle, valueHandle := h.DecorationPair(i)
		name, ok := p.Mem.Retrieve(nameHandle)
		if !ok {
			p.Diag.addStaleHandle()
			continue
		}
		payload, ok := p.Mem.Retrieve(valueHandle)
		if !ok {
			p.Diag.addStaleHandle()
			continue
		}
		var hole template.ArgumentInfo
		err := emit(TrimNUL(name), func() (DecodeStatus, error) {
			return p.decodeJSONValue(out, f, payload, &hole)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) emitJSONContextArg(out *Buffer, f *Formatter, h *HeaderData, idx int, arg *template.ArgumentInfo, emit func([]byte, func() (DecodeStatus, error)) error) error {
	if idx < 0 || idx >= h.ContextCount() {
		p.Diag.addUnknownType()
		return nil
	}
	payload, ok := p.Mem.Retrieve(h.ContextPayload(idx))
	if !ok {
		p.Diag.addStaleHandle()
		return nil
	}
	key := arg.Name
	if len(key) == 0 {
		key = []byte("arg" + strconv.Itoa(idx))
	}
	return emit(key, func() (DecodeStatus, error) {
		return p.decodeJSONValue(out, f, payload, arg)
	})
}

func (p *Pipeline) decodeJSONValue(out *Buffer, f *Formatter, payload []byte, arg *template.ArgumentInfo) (DecodeStatus, error) {
	switch st := p.Decoders.Decode(out, f, payload, p.Mem, arg); st {
	case DecodeSuccess:
		return st, nil
	case DecodeFailed:
		p.Diag.addDecodeFailure()
		p.Diag.reportError(ErrDecodeFailed)
		return st, ErrDecodeFailed
	default:
		p.Diag.addUnknownType()
		return st, nil
	}
}
