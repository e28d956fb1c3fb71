// Package istty reports whether a file descriptor is attached to a
// terminal, for console color auto-detection.
package istty

// IsTerminal reports whether fd is attached to a terminal.
func IsTerminal(fd int) bool {
	return isTerminal(fd)
}
