package render_test

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fastjson"

	"pkt.systems/ringlog/mem"
	"pkt.systems/ringlog/numfmt"
	"pkt.systems/ringlog/render"
	"pkt.systems/ringlog/template"
)

const (
	tagTestInt uint64 = 0x7101
	tagTestStr uint64 = 0x7102
)

func testDecode(out *render.Buffer, f *render.Formatter, payload []byte, _ *mem.Manager, hole *template.ArgumentInfo) render.DecodeStatus {
	if len(payload) < 8 {
		return render.DecodeUnknownType
	}
	switch binary.LittleEndian.Uint64(payload) {
	case tagTestInt:
		if len(payload) < 16 {
			return render.DecodeFailed
		}
		v := int64(binary.LittleEndian.Uint64(payload[8:]))
		fm := numfmt.ParseFormat(string(hole.Format))
		out.AppendFunc(func(dst []byte) []byte {
			return numfmt.AppendInt(dst, v, fm, hole.Alignment)
		})
		return render.DecodeSuccess
	case tagTestStr:
		if len(payload) < 12 {
			return render.DecodeFailed
		}
		n := int(binary.LittleEndian.Uint32(payload[8:]))
		if 12+n > len(payload) {
			return render.DecodeFailed
		}
		f.AppendStringValue(out, payload[12:12+n])
		return render.DecodeSuccess
	}
	return render.DecodeUnknownType
}

type fixture struct {
	mem  *mem.Manager
	reg  *render.Registry
	diag *render.Diagnostics
	pipe *render.Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		mem:  mem.NewManager(mem.Config{}),
		reg:  &render.Registry{},
		diag: &render.Diagnostics{},
	}
	fx.reg.Register(render.DecoderFunc(testDecode))
	fx.pipe = &render.Pipeline{Mem: fx.mem, Decoders: fx.reg, Diag: fx.diag}
	return fx
}

func (fx *fixture) putInt(t *testing.T, v int64) mem.PayloadHandle {
	t.Helper()
	h, buf := fx.mem.Allocate(16)
	if h.IsNil() {
		t.Fatal("allocate int payload")
	}
	binary.LittleEndian.PutUint64(buf, tagTestInt)
	binary.LittleEndian.PutUint64(buf[8:], uint64(v))
	return h
}

func (fx *fixture) putStr(t *testing.T, s string) mem.PayloadHandle {
	t.Helper()
	h, buf := fx.mem.Allocate(12 + len(s))
	if h.IsNil() {
		t.Fatal("allocate string payload")
	}
	binary.LittleEndian.PutUint64(buf, tagTestStr)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(s)))
	copy(buf[12:], s)
	return h
}

func (fx *fixture) putRaw(t *testing.T, s string) mem.PayloadHandle {
	t.Helper()
	h, buf := fx.mem.Allocate(len(s))
	if h.IsNil() {
		t.Fatal("allocate raw payload")
	}
	copy(buf, s)
	return h
}

// buildEvent assembles a head payload: message handle, decoration-header
// handle, decoration handle pairs, then context argument handles.
func (fx *fixture) buildEvent(t *testing.T, msg string, decorations []mem.PayloadHandle, ctx ...mem.PayloadHandle) render.LogMessage {
	t.Helper()
	msgHandle := fx.putRaw(t, msg)
	total := len(decorations)
	deco, word := fx.mem.Allocate(render.DecorationWordSize)
	if deco.IsNil() {
		t.Fatal("allocate decoration header payload")
	}
	render.EncodeDecorationWord(word, total, 0, total)
	head, buf := fx.mem.Allocate((2 + total + len(ctx)) * mem.HandleByteSize)
	if head.IsNil() {
		t.Fatal("allocate head payload")
	}
	binary.LittleEndian.PutUint64(buf, uint64(msgHandle))
	binary.LittleEndian.PutUint64(buf[8:], uint64(deco))
	pos := 16
	for _, d := range decorations {
		binary.LittleEndian.PutUint64(buf[pos:], uint64(d))
		pos += mem.HandleByteSize
	}
	for _, c := range ctx {
		binary.LittleEndian.PutUint64(buf[pos:], uint64(c))
		pos += mem.HandleByteSize
	}
	ts := time.Date(2024, 3, 5, 7, 8, 9, 123_000_000, time.UTC).UnixNano()
	return render.LogMessage{Timestamp: ts, Level: render.InfoLevel, Head: head}
}

var defaultTemplate = []byte("{Timestamp} | {Level} | {Message}")

func renderText(t *testing.T, fx *fixture, msg render.LogMessage, tmpl []byte) string {
	t.Helper()
	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	if err := fx.pipe.RenderText(out, msg, tmpl); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	return out.String()
}

func renderJSON(t *testing.T, fx *fixture, msg render.LogMessage) string {
	t.Helper()
	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	if err := fx.pipe.RenderJSON(out, msg); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	return out.String()
}

func TestRenderTextRoundTrip(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "user {0} asked {1} times", nil,
		fx.putStr(t, "alice"), fx.putInt(t, 3))
	got := renderText(t, fx, msg, defaultTemplate)
	want := "2024-03-05 07:08:09,123 | Info | user alice asked 3 times"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderTextNamedHolesOccurrenceOrder(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "{verb} {noun}", nil,
		fx.putStr(t, "eat"), fx.putStr(t, "soup"))
	got := renderText(t, fx, msg, []byte("{Message}"))
	if got != "eat soup" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextHoleFormatAndAlignment(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "[{0,6:D4}]", nil, fx.putInt(t, 42))
	got := renderText(t, fx, msg, []byte("{Message}"))
	if got != "[  0042]" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextEscapedBraces(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "{{{0}}}", nil, fx.putStr(t, "X"))
	got := renderText(t, fx, msg, []byte("{Message}"))
	if got != "{X}" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextMessageCannotExpandItself(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "loop {Message} end", nil)
	got := renderText(t, fx, msg, []byte("{Message}"))
	if got != "loop  end" {
		t.Fatalf("got %q", got)
	}
	if fx.diag.ParseFailures.Load() == 0 {
		t.Fatal("self-referencing message should count as parse failure")
	}
}

func TestRenderTextNewLineHole(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "a{NewLine}b", nil)
	if got := renderText(t, fx, msg, []byte("{Message}")); got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextMalformedHoleIsSoft(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "x {na me} y", nil)
	if got := renderText(t, fx, msg, []byte("{Message}")); got != "x  y" {
		t.Fatalf("got %q", got)
	}
	if fx.diag.ParseFailures.Load() != 1 {
		t.Fatalf("ParseFailures = %d", fx.diag.ParseFailures.Load())
	}
}

func TestRenderTextUnknownTypeIsSoft(t *testing.T) {
	fx := newFixture(t)
	h, buf := fx.mem.Allocate(8)
	binary.LittleEndian.PutUint64(buf, 0xdead)
	msg := fx.buildEvent(t, "v={0}!", nil, h)
	if got := renderText(t, fx, msg, []byte("{Message}")); got != "v=!" {
		t.Fatalf("got %q", got)
	}
	if fx.diag.UnknownTypes.Load() != 1 {
		t.Fatalf("UnknownTypes = %d", fx.diag.UnknownTypes.Load())
	}
}

func TestRenderTextEmptyRegistry(t *testing.T) {
	fx := newFixture(t)
	fx.pipe.Decoders = &render.Registry{}
	msg := fx.buildEvent(t, "v={0}", nil, fx.putInt(t, 1))
	if got := renderText(t, fx, msg, []byte("{Message}")); got != "v=" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextDecoderFailureAborts(t *testing.T) {
	fx := newFixture(t)
	h, buf := fx.mem.Allocate(10)
	binary.LittleEndian.PutUint64(buf, tagTestInt) // truncated int payload
	msg := fx.buildEvent(t, "v={0}", nil, h)
	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	err := fx.pipe.RenderText(out, msg, []byte("{Message}"))
	if !errors.Is(err, render.ErrDecodeFailed) {
		t.Fatalf("err = %v", err)
	}
	if fx.diag.DecodeFailures.Load() != 1 {
		t.Fatalf("DecodeFailures = %d", fx.diag.DecodeFailures.Load())
	}
}

func TestRenderTextMissingArgumentIsSoft(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "a={0} b={1}", nil, fx.putInt(t, 7))
	if got := renderText(t, fx, msg, []byte("{Message}")); got != "a=7 b=" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextProperties(t *testing.T) {
	fx := newFixture(t)
	decorations := []mem.PayloadHandle{
		fx.putRaw(t, "svc"), fx.putStr(t, "api"),
		fx.putRaw(t, "try"), fx.putInt(t, 2),
	}
	msg := fx.buildEvent(t, "hi", decorations)
	got := renderText(t, fx, msg, []byte("{Message} {Properties}"))
	if got != "hi [svc=api try=2]" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderTextStaleHeadFails(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "hi", nil)
	fx.mem.Release(msg.Head, false)
	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	if err := fx.pipe.RenderText(out, msg, defaultTemplate); !errors.Is(err, render.ErrHeadInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderJSONShape(t *testing.T) {
	fx := newFixture(t)
	decorations := []mem.PayloadHandle{fx.putRaw(t, "svc"), fx.putStr(t, "api")}
	msg := fx.buildEvent(t, "user {name} did {0} things", decorations,
		fx.putStr(t, "bob"), fx.putInt(t, 5))
	got := renderJSON(t, fx, msg)
	v, err := fastjson.Parse(got)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if ts := string(v.GetStringBytes("Timestamp")); ts != "2024-03-05 07:08:09,123" {
		t.Fatalf("Timestamp = %q", ts)
	}
	if lv := string(v.GetStringBytes("Level")); lv != "Info" {
		t.Fatalf("Level = %q", lv)
	}
	if m := string(v.GetStringBytes("Message")); m != "user {name} did {0} things" {
		t.Fatalf("Message = %q", m)
	}
	props := v.Get("Properties")
	if props == nil {
		t.Fatal("no Properties")
	}
	if s := string(props.GetStringBytes("name")); s != "bob" {
		t.Fatalf("name = %q", s)
	}
	if n := props.GetInt64("arg0"); n != 5 {
		t.Fatalf("arg0 = %d", n)
	}
	if s := string(props.GetStringBytes("svc")); s != "api" {
		t.Fatalf("svc = %q", s)
	}
}

func TestRenderJSONDuplicateKeysFirstWins(t *testing.T) {
	fx := newFixture(t)
	decorations := []mem.PayloadHandle{fx.putRaw(t, "name"), fx.putStr(t, "shadowed")}
	msg := fx.buildEvent(t, "{name}", decorations, fx.putStr(t, "first"))
	got := renderJSON(t, fx, msg)
	if strings.Count(got, `"name":`) != 1 {
		t.Fatalf("duplicate key in %q", got)
	}
	v, err := fastjson.Parse(got)
	if err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if s := string(v.Get("Properties").GetStringBytes("name")); s != "first" {
		t.Fatalf("name = %q", s)
	}
}

func TestRenderJSONEmptyProperties(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "plain", nil)
	got := renderJSON(t, fx, msg)
	v, err := fastjson.Parse(got)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	props := v.Get("Properties")
	if props == nil {
		t.Fatal("Properties must always be present")
	}
	o, err := props.Object()
	if err != nil || o.Len() != 0 {
		t.Fatalf("Properties not empty: %q", got)
	}
}

func TestRenderJSONEscapesMessage(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "line\none \"two\"\t\\", nil)
	got := renderJSON(t, fx, msg)
	v, err := fastjson.Parse(got)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if m := string(v.GetStringBytes("Message")); m != "line\none \"two\"\t\\" {
		t.Fatalf("Message = %q", m)
	}
}

func TestRenderJSONUnknownTypeDropsProperty(t *testing.T) {
	fx := newFixture(t)
	h, buf := fx.mem.Allocate(8)
	binary.LittleEndian.PutUint64(buf, 0xbeef)
	msg := fx.buildEvent(t, "{mystery} {0}", nil, h, fx.putInt(t, 9))
	got := renderJSON(t, fx, msg)
	v, err := fastjson.Parse(got)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	props := v.Get("Properties")
	if props.Exists("mystery") {
		t.Fatalf("unknown-type property leaked: %q", got)
	}
	if n := props.GetInt64("arg1"); n != 9 {
		t.Fatalf("arg1 = %d in %q", n, got)
	}
}

type stubStacks struct{ text string }

func (s stubStacks) AppendStackTraceText(id uint64, out *render.Buffer) {
	out.AppendString(s.text)
}

func TestRenderJSONStacktrace(t *testing.T) {
	fx := newFixture(t)
	fx.pipe.Stack = stubStacks{text: "at main.go:1"}
	msg := fx.buildEvent(t, "boom", nil)
	msg.StackTraceID = 77
	got := renderJSON(t, fx, msg)
	v, err := fastjson.Parse(got)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if s := string(v.GetStringBytes("Stacktrace")); s != "at main.go:1" {
		t.Fatalf("Stacktrace = %q", s)
	}

	msg.StackTraceID = 0
	if got := renderJSON(t, fx, msg); strings.Contains(got, "Stacktrace") {
		t.Fatalf("zero id must omit Stacktrace: %q", got)
	}
}

// corruptHead builds a decorated event and hands the mutator the
// decoration-header payload resolved through index 1 of the head.
func corruptHead(t *testing.T, fx *fixture, mutate func(word []byte)) render.LogMessage {
	t.Helper()
	msg := fx.buildEvent(t, "hi", []mem.PayloadHandle{fx.putRaw(t, "k"), fx.putStr(t, "v")})
	buf, ok := fx.mem.Retrieve(msg.Head)
	if !ok {
		t.Fatal("retrieve head")
	}
	deco := mem.PayloadHandle(binary.LittleEndian.Uint64(buf[8:]))
	word, ok := fx.mem.Retrieve(deco)
	if !ok {
		t.Fatal("retrieve decoration header")
	}
	mutate(word)
	return msg
}

func TestHeaderCorruptionRejected(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(buf []byte)
		want   error
	}{
		{"odd total", func(word []byte) {
			binary.LittleEndian.PutUint16(word[4:], 3)
		}, render.ErrOddDecorations},
		{"split exceeds total", func(word []byte) {
			binary.LittleEndian.PutUint16(word, 2)
			binary.LittleEndian.PutUint16(word[2:], 2)
		}, render.ErrDecorationSplit},
		{"total overflows buffer", func(word []byte) {
			binary.LittleEndian.PutUint16(word[4:], 64)
			binary.LittleEndian.PutUint16(word, 0)
		}, render.ErrDecorationOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t)
			msg := corruptHead(t, fx, tc.mutate)
			out := render.AcquireBuffer()
			defer render.ReleaseBuffer(out)
			err := fx.pipe.RenderText(out, msg, defaultTemplate)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if out.Len() != 0 {
				t.Fatalf("partial output on corruption: %q", out.String())
			}
			if fx.diag.CorruptHeaders.Load() == 0 {
				t.Fatal("CorruptHeaders not counted")
			}
			if err2 := fx.pipe.RenderJSON(out, msg); err2 == nil {
				t.Fatal("corrupt header accepted by JSON path")
			}
		})
	}
}

func TestHeaderTooSmallRejected(t *testing.T) {
	fx := newFixture(t)
	head, _ := fx.mem.Allocate(8)
	msg := render.LogMessage{Head: head, Level: render.InfoLevel}
	_, err := render.DecodeHeader(fx.mem, msg.Head)
	if !errors.Is(err, render.ErrHeadTooSmall) {
		t.Fatalf("err = %v", err)
	}
}

func TestHeaderMisalignedRejected(t *testing.T) {
	fx := newFixture(t)
	head, _ := fx.mem.Allocate(17)
	_, err := render.DecodeHeader(fx.mem, head)
	if !errors.Is(err, render.ErrHeadMisaligned) {
		t.Fatalf("err = %v", err)
	}
}

func TestHeaderDecorationIndirection(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "hi", []mem.PayloadHandle{fx.putRaw(t, "k"), fx.putStr(t, "v")})

	h, err := render.DecodeHeader(fx.mem, msg.Head)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	// Index 1 holds a handle, not the counts themselves; it must resolve
	// through the manager to a separate payload carrying them.
	buf, ok := fx.mem.Retrieve(msg.Head)
	if !ok {
		t.Fatal("retrieve head")
	}
	stored := mem.PayloadHandle(binary.LittleEndian.Uint64(buf[8:]))
	if stored != h.DecorationHeader {
		t.Fatalf("DecorationHeader = %v, head stores %v", h.DecorationHeader, stored)
	}
	word, ok := fx.mem.Retrieve(h.DecorationHeader)
	if !ok {
		t.Fatal("decoration header payload not resolvable")
	}
	if len(word) < render.DecorationWordSize {
		t.Fatalf("decoration header payload too short: %d", len(word))
	}
	if got := binary.LittleEndian.Uint16(word[4:]); got != 2 {
		t.Fatalf("total count = %d, want 2", got)
	}
	if h.DecorationPairs() != 1 {
		t.Fatalf("DecorationPairs = %d, want 1", h.DecorationPairs())
	}
}

func TestStaleDecorationHeaderRejected(t *testing.T) {
	fx := newFixture(t)
	msg := fx.buildEvent(t, "hi", []mem.PayloadHandle{fx.putRaw(t, "k"), fx.putStr(t, "v")})

	h, err := render.DecodeHeader(fx.mem, msg.Head)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	fx.mem.Release(h.DecorationHeader, true)

	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	if err := fx.pipe.RenderText(out, msg, defaultTemplate); !errors.Is(err, render.ErrDecorationHeaderInvalid) {
		t.Fatalf("err = %v, want ErrDecorationHeaderInvalid", err)
	}
	if out.Len() != 0 {
		t.Fatalf("partial output: %q", out.String())
	}
	if fx.diag.CorruptHeaders.Load() == 0 {
		t.Fatal("CorruptHeaders not counted")
	}
}
