package command

import (
	"strconv"
	"strings"
)

// ParseResult holds the parsed command word and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the text after the command with inner spacing preserved,
	// so multi-word exit names such as "Upstairs Loft" survive.
	RawArgs string
	// Raw is the whole trimmed line, used when the line names an exit directly.
	Raw string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	spaceIdx := strings.IndexFunc(line, func(r rune) bool { return r == ' ' || r == '\t' })
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToLower(line),
			Raw:     line,
		}
	}

	rest := strings.TrimSpace(line[spaceIdx+1:])
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: strings.ToLower(line[:spaceIdx]),
		Args:    args,
		RawArgs: rest,
		Raw:     line,
	}
}

// ExitIndex interprets s as a 1-based position in an exit list of length n.
//
// Postcondition: Returns (index, true) with 0 <= index < n, or (0, false).
func ExitIndex(s string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}
