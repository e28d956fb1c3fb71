package render

import "pkt.systems/ringlog/mem"

// LogMessage is the fixed per-event record a producer hands to the render
// side. Everything variable-length hangs off Head: the handle of the
// disjointed buffer listing the message text, decorations, and context
// arguments.
//
// The record and every payload it references are created atomically at log
// time and immutable afterwards; they are released only once no render pass
// can still be reading them.
type LogMessage struct {
	// Timestamp is nanoseconds since an arbitrary epoch, monotonic within
	// the process.
	Timestamp int64
	// Level is the event severity.
	Level Level
	// StackTraceID resolves through a StackTraceAppender; zero means no
	// stack trace was captured.
	StackTraceID uint64
	// Head is the handle of the disjointed buffer.
	Head mem.PayloadHandle
}
