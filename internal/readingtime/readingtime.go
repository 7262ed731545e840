// Package readingtime estimates how long a body of text takes to read.
package readingtime

import "strings"

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// Estimate returns ceil(words/WordsPerMinute) minutes, never less than one.
func Estimate(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
