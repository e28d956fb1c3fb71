// Package numfmt converts integers into text under .NET-style format
// specifiers: the standard single-letter forms (C, D, E, F, G, N, P, R, X)
// and custom digit-template forms built from 0/#/./, placeholders with group
// separators and number scaling.
//
// The engine is a pure function library over values of at most 64 bits; it
// keeps no shared state.
package numfmt

// Specifier selects one of the standard format families, or Custom when the
// format string is a digit template.
type Specifier uint8

const (
	None Specifier = iota
	Currency
	Decimal
	Scientific
	FixedPoint
	General
	Number
	Percent
	RoundTrip
	Hex
	Custom
)

// skelItem is one element of a parsed custom template: either a digit
// placeholder ('0' mandatory, '#' optional) or a literal span.
type skelItem struct {
	digit byte // '0' or '#'; 0 for a literal item
	text  string
}

// Format is a parsed numeric format specifier.
type Format struct {
	Spec      Specifier
	Precision int // -1 when the specifier carries no precision
	Upper     bool

	// Custom template fields.
	GroupSeparatorDigits    int // 0 or 3
	NumberScalingSeparators int // divisions by 1000 applied before rendering
	HasDecimal              bool
	HasExponent             bool // detected but not rendered

	intItems  []skelItem
	fracItems []skelItem
	fracHoles int
}

// ParseFormat parses a hole's format string. An empty string yields the None
// specifier; a leading standard letter with a clean integer remainder yields
// that standard form; anything else is treated as a custom template.
func ParseFormat(s string) Format {
	if s == "" {
		return Format{Spec: None, Precision: -1}
	}
	spec, upper, ok := standardSpecifier(s[0])
	if ok {
		precision := -1
		if len(s) > 1 {
			p, clean := parseUint(s[1:])
			if !clean {
				return parseCustom(s)
			}
			precision = p
		}
		return Format{Spec: spec, Precision: precision, Upper: upper}
	}
	return parseCustom(s)
}

func standardSpecifier(c byte) (Specifier, bool, bool) {
	upper := c >= 'A' && c <= 'Z'
	switch c | 0x20 {
	case 'c':
		return Currency, upper, true
	case 'd':
		return Decimal, upper, true
	case 'e':
		return Scientific, upper, true
	case 'f':
		return FixedPoint, upper, true
	case 'g':
		return General, upper, true
	case 'n':
		return Number, upper, true
	case 'p':
		return Percent, upper, true
	case 'r':
		return RoundTrip, upper, true
	case 'x':
		return Hex, upper, true
	}
	return None, false, false
}

func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
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

// token kinds for the custom-template scanner.
type tokKind uint8

const (
	tokDigit tokKind = iota
	tokDot
	tokComma
	tokExp
	tokLiteral
)

type token struct {
	kind  tokKind
	digit byte
	text  string
}

// parseCustom scans a custom template left to right, honoring backslash
// escapes, quoted literal spans, and the exponent marker, then classifies
// every comma as scaling, grouping, or literal.
func parseCustom(s string) Format {
	f := Format{Spec: Custom, Precision: -1}
	tokens := tokenize(s)

	// The first dot token marks the decimal point; later dots are literal.
	dotIdx := -1
	for i, t := range tokens {
		if t.kind == tokDot {
			if dotIdx < 0 {
				dotIdx = i
			} else {
				tokens[i] = token{kind: tokLiteral, text: "."}
			}
		}
	}
	f.HasDecimal = dotIdx >= 0

	// Scaling commas: the contiguous comma run directly left of the decimal
	// point, plus any trailing comma run at the end of the template. Each
	// one divides the value by 1000 for display.
	scaling := make([]bool, len(tokens))
	if dotIdx >= 0 {
		for i := dotIdx - 1; i >= 0 && tokens[i].kind == tokComma; i-- {
			scaling[i] = true
			f.NumberScalingSeparators++
		}
	}
	for i := len(tokens) - 1; i >= 0 && tokens[i].kind == tokComma; i-- {
		if scaling[i] {
			break
		}
		scaling[i] = true
		f.NumberScalingSeparators++
	}

	// Remaining commas between digit placeholders enable grouping; commas
	// outside the digit span pass through as literals.
	firstDigit, lastDigit := -1, -1
	for i, t := range tokens {
		if t.kind == tokDigit {
			if firstDigit < 0 {
				firstDigit = i
			}
			lastDigit = i
		}
	}
	for i, t := range tokens {
		if t.kind != tokComma || scaling[i] {
			continue
		}
		if firstDigit >= 0 && i > firstDigit && i < lastDigit {
			f.GroupSeparatorDigits = 3
		} else {
			tokens[i] = token{kind: tokLiteral, text: ","}
		}
	}

	for i, t := range tokens {
		inFrac := dotIdx >= 0 && i > dotIdx
		switch t.kind {
		case tokDigit:
			item := skelItem{digit: t.digit}
			if inFrac {
				f.fracItems = append(f.fracItems, item)
				f.fracHoles++
			} else {
				f.intItems = append(f.intItems, item)
			}
		case tokLiteral:
			item := skelItem{text: t.text}
			if inFrac {
				f.fracItems = append(f.fracItems, item)
			} else {
				f.intItems = append(f.intItems, item)
			}
		case tokExp:
			f.HasExponent = true
		}
	}
	return f
}

func tokenize(s string) []token {
	var tokens []token
	literal := func(text string) {
		if n := len(tokens); n > 0 && tokens[n-1].kind == tokLiteral {
			tokens[n-1].text += text
			return
		}
		tokens = append(tokens, token{kind: tokLiteral, text: text})
	}
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '0' || c == '#':
			tokens = append(tokens, token{kind: tokDigit, digit: c})
			i++
		case c == '.':
			tokens = append(tokens, token{kind: tokDot})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma})
			i++
		case c == '\\':
			if i+1 < len(s) {
				literal(s[i+1 : i+2])
				i += 2
			} else {
				literal(s[i : i+1])
				i++
			}
		case c == '\'' || c == '"':
			end := i + 1
			for end < len(s) && s[end] != c {
				end++
			}
			if end < len(s) {
				literal(s[i+1 : end])
				i = end + 1
			} else {
				// Unmatched quote: the rest of the template is literal.
				literal(s[i+1:])
				i = len(s)
			}
		case c == 'E' || c == 'e':
			if n := exponentLen(s[i:]); n > 0 {
				tokens = append(tokens, token{kind: tokExp})
				i += n
			} else {
				literal(s[i : i+1])
				i++
			}
		default:
			literal(s[i : i+1])
			i++
		}
	}
	return tokens
}

// exponentLen returns the byte length of an exponent marker (E/e, optional
// sign, one or more zeros) at the start of s, or 0 if s does not begin with
// one.
func exponentLen(s string) int {
	i := 1
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	zeros := 0
	for i < len(s) && s[i] == '0' {
		i++
		zeros++
	}
	if zeros == 0 {
		return 0
	}
	return i
}
