// Package argv turns pipeline program text into an argument vector.
package argv

import (
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// ErrTokenize is returned when the program text cannot be split, e.g. an unclosed quote.
var ErrTokenize = errors.New("invalid quoting")

// StripComments removes every line whose first non-space character is '#'.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t\r"), "#") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// Split tokenizes text with shell-like quoting rules.
func Split(text string) ([]string, error) {
	tokens, err := shlex.Split(text)
	if err != nil {
		return nil, errors.Wrap(ErrTokenize, err.Error())
	}

	return tokens, nil
}

// Parse strips the comment lines of text and tokenizes what remains.
func Parse(text string) ([]string, error) {
	return Split(StripComments(text))
}
