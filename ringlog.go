package ringlog

import "pkt.systems/ringlog/render"

// Level defines log severities, ordered from least to most severe.
type Level = render.Level

const (
	// VerboseLevel is the chattiest severity.
	VerboseLevel = render.VerboseLevel
	// DebugLevel defines debug log severity.
	DebugLevel = render.DebugLevel
	// InfoLevel defines informational severity.
	InfoLevel = render.InfoLevel
	// WarningLevel defines warning severity.
	WarningLevel = render.WarningLevel
	// ErrorLevel defines error severity.
	ErrorLevel = render.ErrorLevel
	// FatalLevel is the most severe level.
	FatalLevel = render.FatalLevel
)

// ParseLevel converts a textual level into a Level value. It accepts values
// such as "verbose", "debug", "info", "warn", "warning", "error", and
// "fatal" (case insensitive).
func ParseLevel(value string) (Level, bool) {
	return render.ParseLevel(value)
}

// LevelString returns the canonical name of a Level.
func LevelString(level Level) string {
	return render.LevelString(level)
}

// Diagnostics is the engine's self-diagnostic counter block.
type Diagnostics = render.Diagnostics

// DefaultTemplate is the text output template sinks use unless configured
// otherwise.
var DefaultTemplate = []byte("{Timestamp} | {Level} | {Message}")
