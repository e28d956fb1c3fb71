package ansi

import (
	"sort"
	"strings"
)

// PaletteDefault restores the package defaults.
var PaletteDefault = Palette{
	Timestamp: Faint,
	Verbose:   Blue,
	Debug:     Green,
	Info:      BrightGreen,
	Warning:   BrightYellow,
	Error:     BrightRed,
	Fatal:     BrightRed,
	Key:       Cyan,
	Message:   Bold,
}

// PaletteMono disables severity colors apart from errors, for terminals
// where full coloring is too noisy.
var PaletteMono = Palette{
	Timestamp: Faint,
	Verbose:   Faint,
	Debug:     Faint,
	Info:      Gray,
	Warning:   Yellow,
	Error:     Red,
	Fatal:     Red,
	Key:       Gray,
	Message:   Bold,
}

// PaletteSolarizedDark maps severities onto the solarized-dark accents.
var PaletteSolarizedDark = Palette{
	Timestamp: "\x1b[38;5;240m",
	Verbose:   "\x1b[38;5;61m",
	Debug:     "\x1b[38;5;37m",
	Info:      "\x1b[38;5;64m",
	Warning:   "\x1b[38;5;136m",
	Error:     "\x1b[38;5;160m",
	Fatal:     "\x1b[38;5;125m",
	Key:       "\x1b[38;5;33m",
	Message:   "\x1b[38;5;254m",
}

// PaletteDracula maps severities onto the dracula scheme.
var PaletteDracula = Palette{
	Timestamp: "\x1b[38;5;61m",
	Verbose:   "\x1b[38;5;141m",
	Debug:     "\x1b[38;5;117m",
	Info:      "\x1b[38;5;84m",
	Warning:   "\x1b[38;5;228m",
	Error:     "\x1b[38;5;203m",
	Fatal:     "\x1b[38;5;212m",
	Key:       "\x1b[38;5;117m",
	Message:   "\x1b[38;5;253m",
}

var namedPalettes = map[string]*Palette{
	"default":        &PaletteDefault,
	"mono":           &PaletteMono,
	"solarized-dark": &PaletteSolarizedDark,
	"dracula":        &PaletteDracula,
}

var paletteAliases = map[string]string{
	"monochrome":    "mono",
	"solarizeddark": "solarized-dark",
	"solarized":     "solarized-dark",
}

// PaletteByName resolves a built-in palette by its canonical name.
// Names are case-insensitive and support compatibility aliases.
func PaletteByName(name string) *Palette {
	normalized := normalizePaletteName(name)
	if normalized == "" {
		return &PaletteDefault
	}
	if canonical, ok := paletteAliases[normalized]; ok {
		normalized = canonical
	}
	if palette, ok := namedPalettes[normalized]; ok && palette != nil {
		return palette
	}
	return &PaletteDefault
}

// AvailablePaletteNames returns canonical built-in palette names in sorted order.
func AvailablePaletteNames() []string {
	names := make([]string, 0, len(namedPalettes))
	for name := range namedPalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizePaletteName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if strings.HasPrefix(s, "palette-") {
		s = strings.TrimPrefix(s, "palette-")
	} else if strings.HasPrefix(s, "palette") {
		s = strings.TrimPrefix(s, "palette")
		s = strings.TrimLeft(s, "-")
	}
	return s
}
