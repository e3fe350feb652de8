// Package message shapes assembled article text into webhook-sized messages.
package message

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLength is the webhook content limit in characters.
const MaxLength = 2000

var blankRun = regexp.MustCompile(`\n{3,}`)

// Normalize collapses every run of three or more newlines into a single blank line.
func Normalize(text string) string {
	return blankRun.ReplaceAllString(text, "\n\n")
}

// NormalizeAll applies Normalize to every chunk.
func NormalizeAll(chunks []string) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = Normalize(c)
	}
	return out
}

// Split packs the lines of content greedily into chunks of at most max characters.
// A line is never broken: a line longer than max becomes its own chunk.
// The chunk being built is closed before a line that would overflow it, even when empty,
// and the last chunk is always returned, so the result is never empty.
func Split(content string, max int) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		n := utf8.RuneCountInString(line) + 1
		if size+n > max {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
		current.WriteString(line)
		current.WriteByte('\n')
		size += n
	}
	return append(chunks, current.String())
}
