package subtitles

import (
	"regexp"
	"strings"
)

// adPatterns match cues inserted by subtitle distributors rather than the
// film itself. Indexing them would let ad text masquerade as dialogue.
var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)advertise (your|yours?) product`),
	regexp.MustCompile(`(?i)http(s)?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\bsubscene\b`),
	regexp.MustCompile(`(?i)\byts\b`),
	regexp.MustCompile(`(?i)\byify\b`),
}

// IsAdvertisement reports whether a cue looks like distributor spam rather
// than dialogue.
func IsAdvertisement(cue Cue) bool {
	payload := strings.TrimSpace(strings.ToLower(cue.Text))
	if payload == "" {
		return false
	}
	for _, pattern := range adPatterns {
		if pattern.MatchString(payload) {
			return true
		}
	}
	return false
}

// Clean filters advertisement cues out of a parsed subtitle, returning the
// kept cues and the number removed.
func Clean(cues []Cue) ([]Cue, int) {
	kept := make([]Cue, 0, len(cues))
	removed := 0
	for _, cue := range cues {
		if IsAdvertisement(cue) {
			removed++
			continue
		}
		kept = append(kept, cue)
	}
	return kept, removed
}
