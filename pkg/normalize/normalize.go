// Package normalize canonicalizes subtitle and query text before embedding.
//
// Indexed chunks and incoming queries must pass through the same pipeline so
// both sides of a similarity comparison live in the same text space. The
// pipeline is pure and deterministic; it never fails on any input.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// SRT cue timing lines, e.g. "00:00:01,000 --> 00:00:02,000".
	timestampRange = regexp.MustCompile(`\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)

	// Cue counter lines: a bare number at the start of a line.
	cueCounter = regexp.MustCompile(`(?m)^\d+\r?\n`)

	whitespaceRun = regexp.MustCompile(`\s+`)

	// [stage directions] and (sound effects) are non-speech.
	annotation = regexp.MustCompile(`\[.*?\]|\(.*?\)`)

	// <i>, <b>, <font ...> and other formatting tags.
	markup = regexp.MustCompile(`<.*?>`)
)

// Normalize cleans raw subtitle or transcript text into the canonical form
// used for embedding. The stages run in a fixed order; each one narrows the
// input for the next. Normalize is idempotent: applying it twice yields the
// same result as applying it once.
func Normalize(text string) string {
	text = timestampRange.ReplaceAllString(text, "")
	text = cueCounter.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	text = annotation.ReplaceAllString(text, "")
	text = markup.ReplaceAllString(text, "")
	// Stripping annotations can leave doubled spaces behind; collapse again
	// so the pipeline is idempotent.
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	return strings.ToLower(text)
}
