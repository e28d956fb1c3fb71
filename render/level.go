package render

import (
	"os"
	"strings"
)

// Level defines log severities, ordered from least to most severe.
type Level int8

const (
	// VerboseLevel is the chattiest severity.
	VerboseLevel Level = iota
	// DebugLevel defines debug log severity.
	DebugLevel
	// InfoLevel defines informational severity.
	InfoLevel
	// WarningLevel defines warning severity.
	WarningLevel
	// ErrorLevel defines error severity.
	ErrorLevel
	// FatalLevel is the most severe level; it does not terminate the
	// process, that policy belongs to sinks.
	FatalLevel
)

// ParseLevel converts a textual level into a Level value. It accepts values
// such as "verbose", "debug", "info", "warn", "warning", "error", and
// "fatal" (case insensitive).
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "verbose", "trace":
		return VerboseLevel, true
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarningLevel, true
	case "error":
		return ErrorLevel, true
	case "fatal":
		return FatalLevel, true
	default:
		return InfoLevel, false
	}
}

// LevelString returns the canonical name of a Level.
func LevelString(level Level) string {
	switch level {
	case VerboseLevel:
		return "Verbose"
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarningLevel:
		return "Warning"
	case ErrorLevel:
		return "Error"
	case FatalLevel:
		return "Fatal"
	default:
		return "Info"
	}
}

// LevelFromEnv looks up key in the environment and parses it into a Level.
func LevelFromEnv(key string) (Level, bool) {
	if key == "" {
		return InfoLevel, false
	}
	value, ok := os.LookupEnv(key)
	if !ok {
		return InfoLevel, false
	}
	return ParseLevel(value)
}
