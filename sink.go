package ringlog

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/klauspost/compress/gzip"

	"pkt.systems/ringlog/ansi"
	"pkt.systems/ringlog/render"
	"pkt.systems/ringlog/template"
)

// Sink consumes fully assembled log events. Consume is called from the
// single dispatch goroutine, one event at a time, with the event's head
// payload locked; implementations render through the supplied pipeline and
// must not retain msg or any payload bytes past the call.
type Sink interface {
	Consume(p *render.Pipeline, msg render.LogMessage) error
	Close() error
}

func levelColor(level Level) string {
	switch level {
	case VerboseLevel:
		return ansi.Verbose
	case DebugLevel:
		return ansi.Debug
	case InfoLevel:
		return ansi.Info
	case WarningLevel:
		return ansi.Warning
	case ErrorLevel:
		return ansi.Error
	case FatalLevel:
		return ansi.Fatal
	default:
		return ansi.Info
	}
}

// ConsoleSink writes text lines to a terminal or pipe. Color is detected
// from the writer's file descriptor; with color active each hole of the
// configured template is wrapped in its palette slot (timestamp, level,
// message body), literals stay uncolored.
type ConsoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	color    bool
	template []byte
}

// NewConsoleSink returns a console sink on w (os.Stderr when nil) with the
// default template and automatic color detection.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleSink{w: w, color: isTerminal(w), template: DefaultTemplate}
}

// SetTemplate replaces the sink's output template.
func (s *ConsoleSink) SetTemplate(tmpl string) *ConsoleSink {
	s.mu.Lock()
	s.template = []byte(tmpl)
	s.mu.Unlock()
	return s
}

// ForceColor overrides the automatic terminal detection.
func (s *ConsoleSink) ForceColor(on bool) *ConsoleSink {
	s.mu.Lock()
	s.color = on
	s.mu.Unlock()
	return s
}

func (s *ConsoleSink) Consume(p *render.Pipeline, msg render.LogMessage) error {
	buf := render.AcquireBuffer()
	defer render.ReleaseBuffer(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.color {
		err = s.renderColor(buf, p, msg)
	} else {
		err = p.RenderText(buf, msg, s.template)
	}
	if err != nil {
		return err
	}
	if msg.StackTraceID != 0 && p.Stack != nil {
		buf.AppendByte('\n')
		p.Stack.AppendStackTraceText(msg.StackTraceID, buf)
	}
	buf.AppendByte('\n')
	_, err = s.w.Write(buf.Bytes())
	return err
}

// renderColor walks the configured template and renders each hole on its
// own, wrapped in the palette slot its built-in name selects. Non-builtin
// holes are rebound to their occurrence index first, so the positional
// argument contract survives the per-hole sub-renders.
func (s *ConsoleSink) renderColor(buf *render.Buffer, p *render.Pipeline, msg render.LogMessage) error {
	tmpl := s.template
	seq := 0
	pos := 0
	for {
		literal, hole, outcome := template.FindNextSegment(tmpl, pos)
		buf.AppendBytes(literal.Slice(tmpl))
		switch outcome {
		case template.NoMoreHoles:
			return nil
		case template.EscapedOpenBrace:
			buf.AppendByte('{')
		case template.EscapedCloseBrace:
			buf.AppendByte('}')
		case template.FoundHole:
			span := hole.Slice(tmpl)
			arg := template.ParseHole(span)
			color := ""
			if arg.Valid {
				switch arg.Type {
				case template.HoleTimestamp:
					color = ansi.Timestamp
				case template.HoleLevel:
					color = levelColor(msg.Level)
				case template.HoleMessage:
					color = ansi.Message
				}
			}
			sub := span
			if arg.Valid && arg.Type == template.HoleUserDefined {
				sub = rebindHole(&arg, seq)
				seq++
			}
			if color != "" {
				buf.AppendString(color)
			}
			err := p.RenderText(buf, msg, sub)
			if color != "" {
				buf.AppendString(ansi.Reset)
			}
			if err != nil {
				return err
			}
		}
		pos = hole.End()
	}
}

// rebindHole rewrites a user-defined hole as an explicitly indexed one,
// keeping its destructuring hint, alignment, and format.
func rebindHole(arg *template.ArgumentInfo, seq int) []byte {
	idx := arg.Index
	if idx < 0 {
		idx = seq
	}
	out := make([]byte, 0, 8+len(arg.Format))
	out = append(out, '{')
	switch arg.Destructure {
	case template.DestructureStructure:
		out = append(out, '@')
	case template.DestructureStringify:
		out = append(out, '$')
	}
	out = strconv.AppendInt(out, int64(idx), 10)
	if arg.Alignment != 0 {
		out = append(out, ',')
		out = strconv.AppendInt(out, int64(arg.Alignment), 10)
	}
	if len(arg.Format) > 0 {
		out = append(out, ':')
		out = append(out, arg.Format...)
	}
	out = append(out, '}')
	return out
}

func (s *ConsoleSink) Close() error {
	return nil
}

// FileSinkOptions configures NewFileSink.
type FileSinkOptions struct {
	// Text selects template-driven text lines instead of JSON objects.
	Text bool
	// Template overrides DefaultTemplate when Text is set.
	Template []byte
	// Compress wraps the file in a gzip stream.
	Compress bool
}

// FileSink appends one rendered event per line to a file, JSON by default.
type FileSink struct {
	mu       sync.Mutex
	f        *os.File
	bw       *bufio.Writer
	gz       *gzip.Writer
	out      io.Writer
	text     bool
	template []byte
}

// NewFileSink creates or appends to path.
func NewFileSink(path string, opts FileSinkOptions) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	s := &FileSink{
		f:        f,
		bw:       bufio.NewWriter(f),
		text:     opts.Text,
		template: opts.Template,
	}
	if len(s.template) == 0 {
		s.template = DefaultTemplate
	}
	s.out = s.bw
	if opts.Compress {
		s.gz = gzip.NewWriter(s.bw)
		s.out = s.gz
	}
	return s, nil
}

func (s *FileSink) Consume(p *render.Pipeline, msg render.LogMessage) error {
	buf := render.AcquireBuffer()
	defer render.ReleaseBuffer(buf)

	var err error
	if s.text {
		err = p.RenderText(buf, msg, s.template)
	} else {
		err = p.RenderJSON(buf, msg)
	}
	if err != nil {
		return err
	}
	buf.AppendByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(buf.Bytes())
	return err
}

// Flush forces buffered output to disk.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gz != nil {
		if err := s.gz.Flush(); err != nil {
			return err
		}
	}
	return s.bw.Flush()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			return err
		}
	}
	if err := s.bw.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}

// MemorySink accumulates rendered events in memory, for tests and for
// observing output without touching the filesystem.
type MemorySink struct {
	mu    sync.Mutex
	text  bool
	lines []string
}

// NewMemorySink returns a sink capturing JSON objects; text switches it to
// template-free text lines.
func NewMemorySink(text bool) *MemorySink {
	return &MemorySink{text: text}
}

func (s *MemorySink) Consume(p *render.Pipeline, msg render.LogMessage) error {
	buf := render.AcquireBuffer()
	defer render.ReleaseBuffer(buf)

	var err error
	if s.text {
		err = p.RenderText(buf, msg, DefaultTemplate)
	} else {
		err = p.RenderJSON(buf, msg)
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lines = append(s.lines, buf.String())
	s.mu.Unlock()
	return nil
}

// Lines returns a copy of everything captured so far.
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *MemorySink) Close() error {
	return nil
}
