// Package telnet provides a Telnet server with ANSI styling for the haunted house.
package telnet

import (
	"fmt"
	"math"
)

// ANSI escape code constants for terminal styling.
const (
	Reset     = "\033[0m"
	Bold      = "\033[1m"
	Dim       = "\033[2m"
	Italic    = "\033[3m"
	Underline = "\033[4m"

	// Foreground colors
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	// Bright foreground colors
	BrightBlack  = "\033[90m"
	BrightRed    = "\033[91m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"

	// Cursor and line control
	EraseLine     = "\033[2K"
	CursorUp      = "\033[1A"
	SaveCursor    = "\0337"
	RestoreCursor = "\0338"
)

// The 256-color palette has a 24-step greyscale ramp from near black to near white.
const (
	greyRampStart = 232
	greyRampSteps = 24
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns the formatted text wrapped with color and Reset.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// Opacity returns a greyscale foreground escape approximating text drawn at
// the given opacity over a black background. Values are clamped to [0,1].
func Opacity(opacity float64) string {
	opacity = math.Max(0, math.Min(1, opacity))
	step := int(math.Round(opacity * float64(greyRampSteps-1)))
	return fmt.Sprintf("\033[38;5;%dm", greyRampStart+step)
}

// StripANSI removes all ANSI escape sequences from a string.
// This is useful for measuring the printable width of styled text.
//
// Postcondition: Returns text with all CSI sequences and ESC 7/ESC 8 removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) {
			switch {
			case s[i+1] == '[':
				// CSI sequences end at the first byte in 0x40..0x7E.
				j := i + 2
				for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
					j++
				}
				if j < len(s) {
					i = j + 1
					continue
				}
			case s[i+1] == '7' || s[i+1] == '8':
				i += 2
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}
