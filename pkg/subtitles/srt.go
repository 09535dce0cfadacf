// Package subtitles parses SRT subtitle files and groups their cues into
// chunks suitable for embedding.
package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// Cue is a single SRT subtitle cue.
type Cue struct {
	// Index is the cue counter as written in the file.
	Index int

	// Start and End are the cue's display window in seconds.
	Start float64
	End   float64

	// Text is the cue's text with line breaks joined by single spaces.
	Text string
}

// Parse reads SRT content into cues. Blocks without a timestamp line are
// skipped rather than failing the whole file; subtitle files in the wild are
// frequently sloppy.
func Parse(content string) ([]Cue, error) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	trimmed := strings.TrimSpace(normalized)
	if trimmed == "" {
		return nil, nil
	}

	var cues []Cue
	for _, block := range strings.Split(trimmed, "\n\n") {
		cue, ok := parseBlock(block)
		if !ok {
			continue
		}
		cues = append(cues, cue)
	}

	return cues, nil
}

func parseBlock(block string) (Cue, bool) {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	if len(lines) == 0 {
		return Cue{}, false
	}

	var cue Cue
	i := 0
	if isNumeric(strings.TrimSpace(lines[i])) {
		cue.Index, _ = strconv.Atoi(strings.TrimSpace(lines[i]))
		i++
	}

	if i >= len(lines) || !strings.Contains(lines[i], "-->") {
		return Cue{}, false
	}

	parts := strings.Split(lines[i], "-->")
	if len(parts) != 2 {
		return Cue{}, false
	}
	start, errStart := parseTimestamp(parts[0])
	end, errEnd := parseTimestamp(parts[1])
	if errStart != nil || errEnd != nil {
		return Cue{}, false
	}
	cue.Start = start
	cue.End = end
	i++

	var textLines []string
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			textLines = append(textLines, line)
		}
	}
	if len(textLines) == 0 {
		return Cue{}, false
	}
	cue.Text = strings.Join(textLines, " ")

	return cue, true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseTimestamp converts an SRT timestamp ("00:01:02,345") into seconds.
// A period is accepted in place of the standard comma.
func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")

	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
