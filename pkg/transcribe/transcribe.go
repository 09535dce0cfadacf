// Package transcribe turns audio and video files into dialogue text for
// identification queries.
package transcribe

import "context"

// Outcome is the result of a successful transcription run. A run that
// completes but hears no dialogue is not an error; callers need to tell
// "nothing was said" apart from "transcription broke".
type Outcome struct {
	// Transcript is the recognized speech, empty when NoSpeech is set.
	Transcript string

	// NoSpeech reports that transcription completed but found no
	// dialogue in the audio.
	NoSpeech bool
}

// Transcriber extracts dialogue from a media file.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (Outcome, error)
}
