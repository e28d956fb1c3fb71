package ringlog

import (
	"encoding/binary"
	"fmt"
	"sync"

	"pkt.systems/ringlog/mem"
	"pkt.systems/ringlog/render"
)

// Options configures NewWithOptions.
type Options struct {
	// Sinks receive every accepted event. Default: a ConsoleSink on stderr.
	Sinks []Sink
	// MinLevel drops events below it before any payload is allocated.
	MinLevel Level
	// MinLevelFromEnv names an environment variable whose value overrides
	// MinLevel when it parses (same values as ParseLevel).
	MinLevelFromEnv string
	// Clock supplies event timestamps in nanoseconds. Default: wall base
	// plus monotonic elapsed.
	Clock Clock
	// Memory tunes the payload allocator.
	Memory mem.Config
	// QueueSize bounds the dispatch queue. A full queue drops the event
	// rather than blocking the caller. Default 1024.
	QueueSize int
	// StackTraceLevel enables stack capture for events at or above the
	// given level. Nil disables capture.
	StackTraceLevel *Level
	// StackTraceDepth bounds captured frames. Zero selects the default.
	StackTraceDepth int
	// OnError receives the hard errors that abort a whole-event render.
	OnError func(error)
}

const defaultQueueSize = 1024

// decoration is one encoded const name/value pair. The payloads live until
// the logger closes; per-event release never touches them.
type decoration struct {
	name  mem.PayloadHandle
	value mem.PayloadHandle
}

// Logger is the producer-facing front end. A Logger is a cheap view over a
// shared core; With and LogLevel derive new views without copying the
// engine.
type Logger struct {
	c     *core
	local []decoration
	min   Level
}

type core struct {
	mem    *mem.Manager
	reg    *render.Registry
	diag   *render.Diagnostics
	stacks *StackTraceStore
	pipe   *render.Pipeline
	clock  Clock
	sinks  []Sink

	stackOn    bool
	stackLevel Level

	queue chan render.LogMessage
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	gmu    sync.Mutex
	global []decoration
}

// New returns a logger dispatching to the given sinks, or to a stderr
// console sink when none are given.
func New(sinks ...Sink) *Logger {
	return NewWithOptions(Options{Sinks: sinks})
}

// NewWithOptions builds a logger from opts and starts its dispatch
// goroutine. Close releases it.
func NewWithOptions(opts Options) *Logger {
	c := &core{
		mem:   mem.NewManager(opts.Memory),
		reg:   DefaultRegistry(),
		diag:  &render.Diagnostics{OnError: opts.OnError},
		clock: opts.Clock,
		sinks: opts.Sinks,
	}
	if c.clock == nil {
		c.clock = defaultClock()
	}
	if len(c.sinks) == 0 {
		c.sinks = []Sink{NewConsoleSink(nil)}
	}
	if opts.StackTraceLevel != nil {
		c.stackOn = true
		c.stackLevel = *opts.StackTraceLevel
	}
	c.stacks = NewStackTraceStore(opts.StackTraceDepth)
	c.pipe = &render.Pipeline{Mem: c.mem, Decoders: c.reg, Stack: c.stacks, Diag: c.diag}

	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	c.queue = make(chan render.LogMessage, size)
	c.wg.Add(1)
	go c.run()

	min := opts.MinLevel
	if opts.MinLevelFromEnv != "" {
		if level, ok := render.LevelFromEnv(opts.MinLevelFromEnv); ok {
			min = level
		}
	}
	return &Logger{c: c, min: min}
}

// Decoders exposes the registry so callers can add decoders for their own
// type tags. Registration must finish before the first log call renders.
func (l *Logger) Decoders() *render.Registry {
	return l.c.reg
}

// Diagnostics exposes the self-diagnostic counters.
func (l *Logger) Diagnostics() *render.Diagnostics {
	return l.c.diag
}

// LogLevel returns a logger derived from the receiver whose minimum level
// is set to level. The receiver itself is not modified.
func (l *Logger) LogLevel(level Level) *Logger {
	return &Logger{c: l.c, local: l.local, min: level}
}

// LogLevelFromEnv configures the derived logger's level from the value of
// key in the environment. Missing or invalid values leave the level
// unchanged.
func (l *Logger) LogLevelFromEnv(key string) *Logger {
	if level, ok := render.LevelFromEnv(key); ok {
		return l.LogLevel(level)
	}
	return l
}

// With returns a logger that stamps the supplied key/value pairs on every
// subsequent event as constant decorations. The receiver remains
// untouched; the pairs are encoded once, not per event.
func (l *Logger) With(keyvals ...any) *Logger {
	child := &Logger{c: l.c, min: l.min}
	child.local = append(append([]decoration(nil), l.local...), l.c.encodePairs(keyvals)...)
	return child
}

// RegisterGlobalDecoration stamps a constant pair on every event from
// every logger sharing this core.
func (l *Logger) RegisterGlobalDecoration(key string, value any) {
	c := l.c
	pairs := c.encodePairs([]any{key, value})
	if len(pairs) == 0 {
		return
	}
	c.gmu.Lock()
	c.global = append(c.global, pairs...)
	c.gmu.Unlock()
}

func (c *core) encodePairs(keyvals []any) []decoration {
	if len(keyvals) == 0 {
		return nil
	}
	pairs := make([]decoration, 0, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		var key string
		switch k := keyvals[i].(type) {
		case string:
			key = k
		default:
			key = fmt.Sprint(k)
		}
		var value any
		if i+1 < len(keyvals) {
			value = keyvals[i+1]
		} else {
			value = "(missing)"
		}
		name := encodeRaw(c.mem, key)
		val := encodeValue(c.mem, value)
		if name.IsNil() || val.IsNil() {
			c.mem.Release(name, true)
			c.mem.Release(val, true)
			c.diag.AddDropped()
			continue
		}
		pairs = append(pairs, decoration{name: name, value: val})
	}
	return pairs
}

// Verbose logs msg at VerboseLevel.
func (l *Logger) Verbose(msg string, args ...any) { l.Log(VerboseLevel, msg, args...) }

// Debug logs msg at DebugLevel.
func (l *Logger) Debug(msg string, args ...any) { l.Log(DebugLevel, msg, args...) }

// Info logs msg at InfoLevel.
func (l *Logger) Info(msg string, args ...any) { l.Log(InfoLevel, msg, args...) }

// Warn logs msg at WarningLevel.
func (l *Logger) Warn(msg string, args ...any) { l.Log(WarningLevel, msg, args...) }

// Error logs msg at ErrorLevel.
func (l *Logger) Error(msg string, args ...any) { l.Log(ErrorLevel, msg, args...) }

// Fatal logs msg at FatalLevel. Termination policy belongs to the caller,
// not the logger.
func (l *Logger) Fatal(msg string, args ...any) { l.Log(FatalLevel, msg, args...) }

// Log encodes msg and args into payloads and queues the event. The holes
// in msg bind to args in order: the Nth non-builtin hole reads args[N],
// and an explicit {2} indexes args directly. A full queue or exhausted
// allocator drops the event and counts it, never blocking the caller.
func (l *Logger) Log(level Level, msg string, args ...any) {
	if level < l.min {
		return
	}
	c := l.c
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	ev, ok := c.build(level, msg, l.local, args)
	if !ok {
		c.diag.AddDropped()
		return
	}
	select {
	case c.queue <- ev:
	default:
		c.releaseEvent(ev, true)
		c.diag.AddDropped()
	}
}

// build assembles the event's payloads: the raw message, one tagged
// payload per argument, the decoration-header counts, and the head buffer
// listing message handle, decoration-header handle, decoration pairs, and
// context handles.
func (c *core) build(level Level, msg string, local []decoration, args []any) (render.LogMessage, bool) {
	msgHandle := encodeRaw(c.mem, msg)
	if msgHandle.IsNil() {
		return render.LogMessage{}, false
	}
	ctx := make([]mem.PayloadHandle, 0, len(args))
	ok := true
	for _, a := range args {
		h := encodeValue(c.mem, a)
		if h.IsNil() {
			ok = false
			break
		}
		ctx = append(ctx, h)
	}

	c.gmu.Lock()
	global := c.global
	localCount := len(local) * 2
	globalCount := len(global) * 2
	total := localCount + globalCount

	var (
		deco mem.PayloadHandle
		head mem.PayloadHandle
		buf  []byte
	)
	if ok {
		var word []byte
		deco, word = c.mem.Allocate(render.DecorationWordSize)
		ok = !deco.IsNil()
		if ok {
			render.EncodeDecorationWord(word, localCount, globalCount, total)
		}
	}
	if ok {
		head, buf = c.mem.Allocate((2 + total + len(ctx)) * mem.HandleByteSize)
		ok = !head.IsNil()
	}
	if !ok {
		c.gmu.Unlock()
		c.mem.Release(msgHandle, true)
		c.mem.Release(deco, true)
		for _, h := range ctx {
			c.mem.Release(h, true)
		}
		return render.LogMessage{}, false
	}
	binary.LittleEndian.PutUint64(buf, uint64(msgHandle))
	binary.LittleEndian.PutUint64(buf[mem.HandleByteSize:], uint64(deco))
	pos := 2 * mem.HandleByteSize
	put := func(h mem.PayloadHandle) {
		binary.LittleEndian.PutUint64(buf[pos:], uint64(h))
		pos += mem.HandleByteSize
	}
	for _, d := range local {
		put(d.name)
		put(d.value)
	}
	for _, d := range global {
		put(d.name)
		put(d.value)
	}
	c.gmu.Unlock()
	for _, h := range ctx {
		put(h)
	}

	var stackID uint64
	if c.stackOn && level >= c.stackLevel {
		stackID = c.stacks.Capture(3)
	}
	return render.LogMessage{
		Timestamp:    c.clock(),
		Level:        level,
		StackTraceID: stackID,
		Head:         head,
	}, true
}

// Close drains the queue, renders what was accepted, flushes and closes
// the sinks, and stops the dispatch goroutine. Log calls racing Close are
// dropped cleanly.
func (l *Logger) Close() error {
	c := l.c
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()
	c.wg.Wait()

	var first error
	for _, s := range c.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
