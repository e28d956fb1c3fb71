package render

import (
	"errors"
	"fmt"

	"pkt.systems/ringlog/mem"
	"pkt.systems/ringlog/template"
)

var (
	// ErrMessageInvalid means the message payload handle inside the head
	// payload no longer resolves.
	ErrMessageInvalid = errors.New("message payload handle is invalid")
	// ErrDecodeFailed means a typed decoder claimed a context argument and
	// reported the payload malformed; the whole render aborts.
	ErrDecodeFailed = errors.New("typed decoder rejected a context argument")
)

// StackTraceAppender resolves an opaque stack trace id to text. A zero id
// means no stack trace was captured.
type StackTraceAppender interface {
	AppendStackTraceText(id uint64, out *Buffer)
}

// Pipeline renders LogMessages to text or JSON. It owns no state beyond
// its collaborators and is safe for use from one rendering goroutine; the
// caller must hold the head payload's lock for the duration of a render.
type Pipeline struct {
	Mem      *mem.Manager
	Decoders *Registry
	Stack    StackTraceAppender
	Diag     *Diagnostics
}

// walk renders one template or message buffer. Literal runs are appended
// verbatim, escape pairs collapse to single braces, and each hole is
// dispatched through renderHole. inMessage guards against {Message}
// referencing itself.
func (p *Pipeline) walk(out *Buffer, f *Formatter, msg LogMessage, h *HeaderData, res *holeResolver, buf, messageBuf []byte, inMessage bool) error {
	pos := 0
	for {
		literal, hole, outcome := template.FindNextSegment(buf, pos)
		out.AppendBytes(literal.Slice(buf))
		switch outcome {
		case template.NoMoreHoles:
			return nil
		case template.EscapedOpenBrace:
			out.AppendByte('{')
		case template.EscapedCloseBrace:
			out.AppendByte('}')
		case template.FoundHole:
			arg := template.ParseHole(hole.Slice(buf))
			if !arg.Valid {
				p.Diag.addParseFailure()
			} else if err := p.renderHole(out, f, msg, h, res, &arg, messageBuf, inMessage); err != nil {
				return err
			}
		}
		pos = hole.End()
	}
}

func (p *Pipeline) renderHole(out *Buffer, f *Formatter, msg LogMessage, h *HeaderData, res *holeResolver, arg *template.ArgumentInfo, messageBuf []byte, inMessage bool) error {
	switch arg.Type {
	case template.HoleTimestamp:
		AppendTimestamp(out, msg.Timestamp)
	case template.HoleLevel:
		out.AppendString(LevelString(msg.Level))
	case template.HoleNewLine:
		out.AppendByte('\n')
	case template.HoleStacktrace:
		if msg.StackTraceID != 0 && p.Stack != nil {
			p.Stack.AppendStackTraceText(msg.StackTraceID, out)
		}
	case template.HoleMessage:
		if inMessage {
			// a message cannot expand itself
			p.Diag.addParseFailure()
			return nil
		}
		return p.walk(out, f, msg, h, res, messageBuf, messageBuf, true)
	case template.HoleProperties:
		return p.renderProperties(out, f, h)
	default:
		idx := res.resolve(arg)
		return p.renderContextArg(out, f, h, idx, arg)
	}
	return nil
}

// renderContextArg decodes one positional context argument through the
// registry. Missing arguments and unclaimed type tags are soft errors; a
// decoder-reported failure aborts the render.
func (p *Pipeline) renderContextArg(out *Buffer, f *Formatter, h *HeaderData, idx int, arg *template.ArgumentInfo) error {
	if idx < 0 || idx >= h.ContextCount() {
		p.Diag.addUnknownType()
		return nil
	}
	payload, ok := p.Mem.Retrieve(h.ContextPayload(idx))
	if !ok {
		p.Diag.addStaleHandle()
		return nil
	}
	switch p.Decoders.Decode(out, f, payload, p.Mem, arg) {
	case DecodeSuccess:
		return nil
	case DecodeFailed:
		p.Diag.addDecodeFailure()
		err := fmt.Errorf("context argument %d: %w", idx, ErrDecodeFailed)
		p.Diag.reportError(err)
		return err
	default:
		p.Diag.addUnknownType()
		return nil
	}
}

// renderProperties emits the decoration pairs as a delimited block. Pairs
// whose name or value handle no longer resolves are skipped.
func (p *Pipeline) renderProperties(out *Buffer, f *Formatter, h *HeaderData) error {
	pairs := h.DecorationPairs()
	if pairs == 0 {
		return nil
	}
	if !f.EnterScope() {
		return nil
	}
	defer f.LeaveScope()
	f.BeginBlock(out)
	wrote := false
	for i := 0; i < pairs; i++ {
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
		if wrote {
			f.Delimiter(out)
		}
		f.AppendKey(out, name)
		mark := out.Len()
		var hole template.ArgumentInfo
		switch p.Decoders.Decode(out, f, payload, p.Mem, &hole) {
		case DecodeSuccess:
		case DecodeFailed:
			p.Diag.addDecodeFailure()
			err := fmt.Errorf("decoration %d: %w", i, ErrDecodeFailed)
			p.Diag.reportError(err)
			return err
		default:
			p.Diag.addUnknownType()
			if f.JSON() {
				out.Truncate(mark)
				out.AppendString("null")
			}
		}
		wrote = true
	}
	f.EndBlock(out)
	return nil
}

func (p *Pipeline) decodeHead(msg LogMessage) (HeaderData, []byte, error) {
	h, err := DecodeHeader(p.Mem, msg.Head)
	if err != nil {
		p.Diag.addCorruptHeader()
		p.Diag.reportError(err)
		return HeaderData{}, nil, err
	}
	messageBuf, ok := p.Mem.Retrieve(h.Message)
	if !ok {
		p.Diag.addStaleHandle()
		p.Diag.reportError(ErrMessageInvalid)
		return HeaderData{}, nil, ErrMessageInvalid
	}
	return h, messageBuf, nil
}
