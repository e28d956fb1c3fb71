// Package ansi provides the ANSI escape sequences and palette helpers used
// by ringlog's colored console sink. The exported strings can be overridden
// or swapped via SetPalette so callers can apply their own color schemes
// without touching sink internals.
package ansi

import "sync"

// Reset is the ANSI escape code that clears all terminal styling; the
// remaining constants expose common ANSI color sequences.
const (
	Reset         = "\x1b[0m"
	Bold          = "\x1b[1m"
	Faint         = "\x1b[90m"
	Red           = "\x1b[31m"
	Green         = "\x1b[32m"
	Yellow        = "\x1b[33m"
	Blue          = "\x1b[34m"
	Magenta       = "\x1b[35m"
	Cyan          = "\x1b[36m"
	Gray          = "\x1b[37m"
	BrightRed     = "\x1b[1;31m"
	BrightGreen   = "\x1b[1;32m"
	BrightYellow  = "\x1b[1;33m"
	BrightBlue    = "\x1b[1;34m"
	BrightMagenta = "\x1b[1;35m"
	BrightCyan    = "\x1b[1;36m"
	BrightWhite   = "\x1b[1;37m"
)

// Semantic aliases that describe how the console sink uses the colors.
var (
	Timestamp = Faint
	Verbose   = Blue
	Debug     = Green
	Info      = BrightGreen
	Warning   = BrightYellow
	Error     = BrightRed
	Fatal     = BrightRed
	Key       = Cyan
	Message   = Bold
)

var paletteMu sync.RWMutex

// Palette is the input type to SetPalette, see the Palette* variables for
// examples.
type Palette struct {
	Timestamp string
	Verbose   string
	Debug     string
	Info      string
	Warning   string
	Error     string
	Fatal     string
	Key       string
	Message   string
}

// SetPalette sets the package-level ANSI color variables exposed by this
// package. Empty fields keep their current value.
//
//	ansi.SetPalette(ansi.PaletteSolarizedDark)
//	// Reset to default
//	ansi.SetPalette(ansi.PaletteDefault)
func SetPalette(palette Palette) {
	paletteMu.Lock()
	defer paletteMu.Unlock()

	current := snapshotLocked()
	Timestamp = f(palette.Timestamp, current.Timestamp)
	Verbose = f(palette.Verbose, current.Verbose)
	Debug = f(palette.Debug, current.Debug)
	Info = f(palette.Info, current.Info)
	Warning = f(palette.Warning, current.Warning)
	Error = f(palette.Error, current.Error)
	Fatal = f(palette.Fatal, current.Fatal)
	Key = f(palette.Key, current.Key)
	Message = f(palette.Message, current.Message)
}

// Snapshot returns the current ANSI palette values.
//
// Typical usage in tests:
//
//	snap := ansi.Snapshot()
//	defer ansi.SetPalette(snap)
//	ansi.SetPalette(ansi.PaletteDracula)
//	// run assertions...
func Snapshot() Palette {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	return snapshotLocked()
}

func snapshotLocked() Palette {
	return Palette{
		Timestamp: Timestamp,
		Verbose:   Verbose,
		Debug:     Debug,
		Info:      Info,
		Warning:   Warning,
		Error:     Error,
		Fatal:     Fatal,
		Key:       Key,
		Message:   Message,
	}
}

func f(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
