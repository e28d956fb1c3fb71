package render

// RenderText renders msg against tmpl, the sink's output template. The
// template drives the walk; its {Message} hole expands the raw message
// bytes recursively against the context arguments.
func (p *Pipeline) RenderText(out *Buffer, msg LogMessage, tmpl []byte) error {
	h, messageBuf, err := p.decodeHead(msg)
	if err != nil {
		return err
	}
	f := &Formatter{Style: StyleText}
	res := &holeResolver{}
	return p.walk(out, f, msg, &h, res, tmpl, messageBuf, false)
}
