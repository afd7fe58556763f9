// Where: internal/commands/tokenize.go
// What: Command line tokenizer.
// Why: Shell input and scripted run groups arrive as single strings
//      whose arguments may carry quoted whitespace.
package commands

import "strings"

// Tokenize splits a command line into fields, honoring single and
// double quotes. Quotes group characters and are dropped from the
// token; an unterminated quote runs to the end of the line.
func Tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	pending := false

	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
			current.Reset()
			pending = false
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			pending = true
		case r == ' ' || r == '\t':
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()
	return tokens
}
