package template

import "bytes"

// HoleType classifies a hole as user-defined or as one of the reserved
// built-in names. A name is built-in only on an exact, case-sensitive match.
type HoleType uint8

const (
	HoleUserDefined HoleType = iota
	HoleTimestamp
	HoleLevel
	HoleStacktrace
	HoleMessage
	HoleNewLine
	HoleProperties
)

// Destructuring is the hole's value-capture hint: @ requests structure
// capture, $ requests stringification.
type Destructuring uint8

const (
	DestructureNone Destructuring = iota
	DestructureStructure
	DestructureStringify
)

// ArgumentInfo is the parsed form of one {...} hole. Name and Format alias
// the scanned buffer; they are views, not copies.
type ArgumentInfo struct {
	Destructure Destructuring
	Name        []byte
	Index       int // -1 for named holes
	Alignment   int
	Format      []byte
	Type        HoleType
	Valid       bool
}

var (
	nameTimestamp  = []byte("Timestamp")
	nameLevel      = []byte("Level")
	nameStacktrace = []byte("Stacktrace")
	nameMessage    = []byte("Message")
	nameNewLine    = []byte("NewLine")
	nameProperties = []byte("Properties")
)

// ParseHole parses a hole body, braces included. A malformed hole yields an
// ArgumentInfo with Valid unset; the rendering pipeline treats that as a
// recoverable per-hole error, not a parse abort.
func ParseHole(body []byte) ArgumentInfo {
	// Fast path for {0}..{9}.
	if len(body) == 3 && body[1] >= '0' && body[1] <= '9' {
		return ArgumentInfo{Index: int(body[1] - '0'), Valid: true}
	}
	if len(body) < 3 || body[0] != '{' || body[len(body)-1] != '}' {
		return ArgumentInfo{Index: -1}
	}
	inner := body[1 : len(body)-1]

	arg := ArgumentInfo{Index: -1}
	switch inner[0] {
	case '@':
		arg.Destructure = DestructureStructure
		inner = inner[1:]
	case '$':
		arg.Destructure = DestructureStringify
		inner = inner[1:]
	}
	if len(inner) == 0 {
		return ArgumentInfo{Index: -1}
	}

	// Everything right of the first unescaped colon is the format string.
	if c := indexUnescaped(inner, ':'); c >= 0 {
		arg.Format = inner[c+1:]
		inner = inner[:c]
	}
	// A comma left of the colon starts the alignment field.
	if c := bytes.IndexByte(inner, ','); c >= 0 {
		alignment, ok := parseAlignment(inner[c+1:])
		if !ok {
			return ArgumentInfo{Index: -1}
		}
		arg.Alignment = alignment
		inner = inner[:c]
	}

	if len(inner) == 0 {
		return ArgumentInfo{Index: -1}
	}
	if index, numeric := parseIndex(inner); numeric {
		arg.Index = index
		arg.Valid = true
		return arg
	}
	if !validName(inner) {
		return ArgumentInfo{Index: -1}
	}
	arg.Name = inner
	arg.Type = classify(inner)
	arg.Valid = true
	return arg
}

func indexUnescaped(b []byte, c byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' {
			i++
			continue
		}
		if b[i] == c {
			return i
		}
	}
	return -1
}

// parseAlignment parses the signed alignment token. An explicit zero token
// (`,0` or `,-0`) is a parse error rather than "no alignment".
func parseAlignment(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	if b[0] == '-' {
		neg = true
		b = b[1:]
	}
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			return 0, false
		}
	}
	if n == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func parseIndex(b []byte) (int, bool) {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			return 0, false
		}
	}
	return n, true
}

func validName(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c == '_':
		default:
			return false
		}
	}
	return len(b) > 0
}

// classify matches the hole name against the reserved built-in keywords,
// filtering on length before comparing bytes.
func classify(name []byte) HoleType {
	switch len(name) {
	case len(nameLevel):
		if bytes.Equal(name, nameLevel) {
			return HoleLevel
		}
	case len(nameMessage):
		if bytes.Equal(name, nameMessage) {
			return HoleMessage
		}
		if bytes.Equal(name, nameNewLine) {
			return HoleNewLine
		}
	case len(nameTimestamp):
		if bytes.Equal(name, nameTimestamp) {
			return HoleTimestamp
		}
	case len(nameStacktrace):
		if bytes.Equal(name, nameStacktrace) {
			return HoleStacktrace
		}
		if bytes.Equal(name, nameProperties) {
			return HoleProperties
		}
	}
	return HoleUserDefined
}
