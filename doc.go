// Package ringlog is a handle-addressed structured logging engine. Log
// calls encode their message and arguments into payload blobs inside a
// generation-checked ring allocator and hand a fixed-size record to a
// dispatch goroutine; rendering, template parsing, and formatting all
// happen off the caller's path.
//
// # Design overview
//
//   - Payload handles: every variable-length piece of an event (message
//     text, each argument, the head index buffer) lives in ringlog/mem
//     behind a (slot, generation) handle. Stale handles read as "not
//     found", never as someone else's bytes.
//   - Message templates: messages are scanned for {Hole} syntax at render
//     time by ringlog/template. Named holes bind to arguments in
//     occurrence order, indexed holes bind directly, and built-in names
//     such as {Timestamp}, {Level}, and {Message} render from the event
//     record itself.
//   - Typed decoding: each argument payload starts with an 8-byte type
//     tag. An ordered decoder registry turns payloads back into text or
//     JSON; unknown tags render as nothing rather than failing the line.
//   - Numeric formats: hole format strings ({0:D4}, {n,8:#,##0.00})
//     follow the .NET numeric specifiers, implemented in ringlog/numfmt.
//   - Deferred reclamation: rendered payloads are released after a tick
//     grace period, and a render pass locks the event's head payload, so
//     sinks never observe recycled memory.
//
// # Usage
//
//	logger := ringlog.New(ringlog.NewConsoleSink(os.Stdout)).
//		With("service", "checkout")
//	logger.Info("user {user} logged in after {attempts} attempts",
//		"alice", 3)
//	defer logger.Close()
//
// Holes bind positionally: the first non-builtin hole reads the first
// argument. Explicit indexes work too:
//
//	logger.Info("{1} then {0}", "second", "first")
//
// # Integration notes
//
//   - Use Logger.LogLevel to derive loggers with different minimum levels,
//     and Logger.With for constant decorations shared by every event.
//   - FileSink writes JSON lines (optionally gzip-compressed); the console
//     sink colorizes through the ansi subpackage when the writer is a
//     terminal.
//   - Logger.Decoders accepts decoders for application-defined type tags.
package ringlog
