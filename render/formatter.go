package render

// Style selects the output dialect a Formatter produces.
type Style uint8

const (
	StyleText Style = iota
	StyleJSON
)

// maxScopeDepth bounds recursion when a decoder renders nested structured
// fields, so cyclic or deeply nested values cannot blow the stack.
const maxScopeDepth = 8

// Formatter is handed to every typed decoder. It carries the output
// dialect plus the property hooks shared between the core renderer and
// decoders that recurse into nested fields.
type Formatter struct {
	Style Style
	depth int
}

// JSON reports whether output must be valid JSON fragments.
func (f *Formatter) JSON() bool {
	return f.Style == StyleJSON
}

// BeginBlock opens a nested property scope.
func (f *Formatter) BeginBlock(b *Buffer) {
	if f.JSON() {
		b.AppendByte('{')
	} else {
		b.AppendByte('[')
	}
}

// EndBlock closes a nested property scope.
func (f *Formatter) EndBlock(b *Buffer) {
	if f.JSON() {
		b.AppendByte('}')
	} else {
		b.AppendByte(']')
	}
}

// Delimiter separates sibling properties inside a block.
func (f *Formatter) Delimiter(b *Buffer) {
	if f.JSON() {
		b.AppendByte(',')
	} else {
		b.AppendByte(' ')
	}
}

// AppendKey writes a property name followed by the dialect's key/value
// separator.
func (f *Formatter) AppendKey(b *Buffer, name []byte) {
	if f.JSON() {
		b.AppendByte('"')
		AppendEscapedJSON(b, name)
		b.AppendString(`":`)
	} else {
		b.AppendBytes(TrimNUL(name))
		b.AppendByte('=')
	}
}

// AppendStringValue writes a string value, quoted and escaped for JSON,
// raw for text.
func (f *Formatter) AppendStringValue(b *Buffer, s []byte) {
	if f.JSON() {
		b.AppendByte('"')
		AppendEscapedJSON(b, s)
		b.AppendByte('"')
	} else {
		b.AppendBytes(TrimNUL(s))
	}
}

// EnterScope tracks nesting depth; it reports false once the cap is
// reached and the caller must not recurse further.
func (f *Formatter) EnterScope() bool {
	if f.depth >= maxScopeDepth {
		return false
	}
	f.depth++
	return true
}

// LeaveScope exits a scope entered with EnterScope.
func (f *Formatter) LeaveScope() {
	if f.depth > 0 {
		f.depth--
	}
}
