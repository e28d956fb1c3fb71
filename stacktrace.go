package ringlog

import (
	"runtime"
	"strconv"
	"sync"

	"pkt.systems/ringlog/render"
)

const defaultStackDepth = 32

// StackTraceStore captures call stacks on the producer side and resolves
// them to text on the render side. Capture stores raw program counters
// only; the expensive symbolization runs when a sink actually renders the
// trace.
type StackTraceStore struct {
	mu     sync.Mutex
	nextID uint64
	depth  int
	traces map[uint64][]uintptr
}

// NewStackTraceStore returns a store capturing up to depth frames per
// trace. A depth of zero or less selects the default.
func NewStackTraceStore(depth int) *StackTraceStore {
	if depth <= 0 {
		depth = defaultStackDepth
	}
	return &StackTraceStore{
		depth:  depth,
		traces: make(map[uint64][]uintptr),
	}
}

// Capture records the current call stack, skipping skip frames above the
// caller, and returns its id. Zero is never returned for a captured trace.
func (s *StackTraceStore) Capture(skip int) uint64 {
	pcs := make([]uintptr, s.depth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return 0
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.traces[id] = pcs[:n]
	s.mu.Unlock()
	return id
}

// AppendStackTraceText resolves id to "function\n\tfile:line" frames. An
// unknown or zero id appends nothing.
func (s *StackTraceStore) AppendStackTraceText(id uint64, out *render.Buffer) {
	if s == nil || id == 0 {
		return
	}
	s.mu.Lock()
	pcs := s.traces[id]
	s.mu.Unlock()
	if len(pcs) == 0 {
		return
	}
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			out.AppendString(frame.Function)
			out.AppendString("\n\t")
			out.AppendString(frame.File)
			out.AppendByte(':')
			out.AppendString(strconv.Itoa(frame.Line))
			out.AppendByte('\n')
		}
		if !more {
			break
		}
	}
}

// Release drops a stored trace once its event has been rendered.
func (s *StackTraceStore) Release(id uint64) {
	if s == nil || id == 0 {
		return
	}
	s.mu.Lock()
	delete(s.traces, id)
	s.mu.Unlock()
}
