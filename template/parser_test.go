package template

import (
	"bytes"
	"testing"
)

// expand walks buf with FindNextSegment and returns the literal text with
// escapes collapsed plus the raw hole bodies in order.
func expand(t *testing.T, buf []byte) (string, []string) {
	t.Helper()
	var text bytes.Buffer
	var holes []string
	offset := 0
	for {
		literal, hole, outcome := FindNextSegment(buf, offset)
		text.Write(literal.Slice(buf))
		switch outcome {
		case NoMoreHoles:
			return text.String(), holes
		case EscapedOpenBrace:
			text.WriteByte('{')
		case EscapedCloseBrace:
			text.WriteByte('}')
		case FoundHole:
			holes = append(holes, string(hole.Slice(buf)))
		}
		offset = hole.End()
	}
}

func TestEscapePairsProduceLiteralBraces(t *testing.T) {
	text, holes := expand(t, []byte("a {{ b }} c"))
	if text != "a { b } c" {
		t.Fatalf("literal text %q", text)
	}
	if len(holes) != 0 {
		t.Fatalf("unexpected holes %v", holes)
	}
}

func TestTripleBraceYieldsBracedHole(t *testing.T) {
	text, holes := expand(t, []byte("{{{0}}}"))
	if text != "{}" {
		t.Fatalf("literal text %q", text)
	}
	if len(holes) != 1 || holes[0] != "{0}" {
		t.Fatalf("holes %v", holes)
	}
}

func TestPlainHoleScan(t *testing.T) {
	text, holes := expand(t, []byte("User {Name} logged in from {0}"))
	if text != "User  logged in from " {
		t.Fatalf("literal text %q", text)
	}
	if len(holes) != 2 || holes[0] != "{Name}" || holes[1] != "{0}" {
		t.Fatalf("holes %v", holes)
	}
}

func TestUnclosedBraceIsLiteral(t *testing.T) {
	text, holes := expand(t, []byte("oops { no close"))
	if text != "oops { no close" {
		t.Fatalf("literal text %q", text)
	}
	if len(holes) != 0 {
		t.Fatalf("unexpected holes %v", holes)
	}
}

func TestLoneCloseBraceIsLiteral(t *testing.T) {
	text, _ := expand(t, []byte("a } b"))
	if text != "a } b" {
		t.Fatalf("literal text %q", text)
	}
}

func TestTrailingNULPaddingTrimmed(t *testing.T) {
	buf := append([]byte("padded {0} tail"), 0, 0, 0)
	text, holes := expand(t, buf)
	if text != "padded  tail" {
		t.Fatalf("literal text %q", text)
	}
	if len(holes) != 1 {
		t.Fatalf("holes %v", holes)
	}
}

func TestMultibyteLiteralsSurviveScan(t *testing.T) {
	text, holes := expand(t, []byte("héllo {0} wörld 日本"))
	if text != "héllo  wörld 日本" {
		t.Fatalf("literal text %q", text)
	}
	if len(holes) != 1 {
		t.Fatalf("holes %v", holes)
	}
}

func TestParseHoleFastPath(t *testing.T) {
	for d := byte('0'); d <= '9'; d++ {
		arg := ParseHole([]byte{'{', d, '}'})
		if !arg.Valid || arg.Index != int(d-'0') || arg.Name != nil {
			t.Fatalf("fast path {%c}: %+v", d, arg)
		}
	}
}

func TestParseHoleNamedAndIndexed(t *testing.T) {
	arg := ParseHole([]byte("{UserName}"))
	if !arg.Valid || string(arg.Name) != "UserName" || arg.Index != -1 || arg.Type != HoleUserDefined {
		t.Fatalf("named: %+v", arg)
	}
	arg = ParseHole([]byte("{42}"))
	if !arg.Valid || arg.Index != 42 || arg.Name != nil {
		t.Fatalf("indexed: %+v", arg)
	}
}

func TestParseHoleAlignmentAndFormat(t *testing.T) {
	arg := ParseHole([]byte("{0,-5:D3}"))
	if !arg.Valid || arg.Index != 0 || arg.Alignment != -5 || string(arg.Format) != "D3" {
		t.Fatalf("full hole: %+v", arg)
	}
	arg = ParseHole([]byte("{Count,8}"))
	if !arg.Valid || string(arg.Name) != "Count" || arg.Alignment != 8 || arg.Format != nil {
		t.Fatalf("alignment only: %+v", arg)
	}
	arg = ParseHole([]byte("{Total:#,##0}"))
	if !arg.Valid || string(arg.Format) != "#,##0" {
		t.Fatalf("format only: %+v", arg)
	}
}

func TestParseHoleDestructuring(t *testing.T) {
	arg := ParseHole([]byte("{@Order}"))
	if !arg.Valid || arg.Destructure != DestructureStructure || string(arg.Name) != "Order" {
		t.Fatalf("structure: %+v", arg)
	}
	arg = ParseHole([]byte("{$Id}"))
	if !arg.Valid || arg.Destructure != DestructureStringify {
		t.Fatalf("stringify: %+v", arg)
	}
}

func TestParseHoleZeroAlignmentRejected(t *testing.T) {
	for _, body := range []string{"{0,0}", "{0,-0}", "{Name,0:D}"} {
		if arg := ParseHole([]byte(body)); arg.Valid {
			t.Fatalf("%s parsed as valid: %+v", body, arg)
		}
	}
}

func TestParseHoleMalformed(t *testing.T) {
	for _, body := range []string{"{}", "{@}", "{na me}", "{na-me}", "{0,}", "{0,x}", "{,5}"} {
		if arg := ParseHole([]byte(body)); arg.Valid {
			t.Fatalf("%s parsed as valid: %+v", body, arg)
		}
	}
}

func TestParseHoleBuiltinClassification(t *testing.T) {
	cases := map[string]HoleType{
		"{Timestamp}":  HoleTimestamp,
		"{Level}":      HoleLevel,
		"{Stacktrace}": HoleStacktrace,
		"{Message}":    HoleMessage,
		"{NewLine}":    HoleNewLine,
		"{Properties}": HoleProperties,
		// Reserved names are case-sensitive and exact.
		"{timestamp}":  HoleUserDefined,
		"{LEVEL}":      HoleUserDefined,
		"{Messages}":   HoleUserDefined,
		"{Timestamp_}": HoleUserDefined,
	}
	for body, want := range cases {
		arg := ParseHole([]byte(body))
		if !arg.Valid {
			t.Fatalf("%s did not parse", body)
		}
		if arg.Type != want {
			t.Fatalf("%s classified %d, want %d", body, arg.Type, want)
		}
	}
}

func TestParseHoleEscapedColonStaysInName(t *testing.T) {
	// The backslash escapes the colon, so no format field begins there;
	// the resulting name contains invalid characters and the hole is
	// rejected rather than misparsed.
	if arg := ParseHole([]byte(`{a\:b}`)); arg.Valid {
		t.Fatalf("escaped colon produced a valid hole: %+v", arg)
	}
}

func FuzzFindNextSegment(f *testing.F) {
	f.Add([]byte("User {Name} logged {{in}} {0,5:D3}"))
	f.Add([]byte("{{{0}}}"))
	f.Add([]byte("}{"))
	f.Add([]byte("\x00\x00"))
	f.Fuzz(func(t *testing.T, buf []byte) {
		offset := 0
		for iter := 0; iter < len(buf)+4; iter++ {
			literal, hole, outcome := FindNextSegment(buf, offset)
			if literal.Offset < 0 || literal.End() > len(buf) {
				t.Fatalf("literal out of range: %+v", literal)
			}
			if outcome == NoMoreHoles {
				return
			}
			if hole.End() <= offset {
				t.Fatalf("no forward progress at %d: %+v", offset, hole)
			}
			if outcome == FoundHole {
				ParseHole(hole.Slice(buf))
			}
			offset = hole.End()
		}
		t.Fatalf("scanner did not terminate")
	})
}
