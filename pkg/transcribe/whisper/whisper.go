// Package whisper transcribes media files with the Whisper CLI, demuxing
// audio through ffmpeg first.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/echoplexco/subscout/pkg/transcribe"
)

const (
	// DefaultModel is the Whisper model used when none is configured.
	// The base model trades accuracy for speed, which suits short
	// identification clips.
	DefaultModel = "base"

	// FFmpegCommand is the ffmpeg binary name.
	FFmpegCommand = "ffmpeg"

	// WhisperCommand is the whisper CLI binary name.
	WhisperCommand = "whisper"
)

// commandRunner executes an external command. Tests inject their own.
type commandRunner func(ctx context.Context, name string, args ...string) error

// Service transcribes media files via ffmpeg and the Whisper CLI.
type Service struct {
	model  string
	runner commandRunner
	logger *slog.Logger
}

// Config holds configuration for the Whisper service.
type Config struct {
	// Model is the Whisper model name (e.g., "base", "small").
	// Defaults to DefaultModel if empty.
	Model string
}

// NewService creates a Whisper transcription service.
func NewService(c Config, logger *slog.Logger) *Service {
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		model:  model,
		runner: runCommand,
		logger: logger,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.runner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.model
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// extractAudioArgs builds the ffmpeg arguments producing a mono 16kHz WAV,
// the input format Whisper expects.
func extractAudioArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// whisperArgs builds the Whisper CLI arguments writing a JSON transcript
// into outputDir.
func (s *Service) whisperArgs(source, outputDir string) []string {
	return []string{
		source,
		"--model", s.model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
}

// whisperOutput is the JSON file the Whisper CLI writes.
type whisperOutput struct {
	Text string `json:"text"`
}

// Transcribe demuxes the media file's audio and runs Whisper over it.
func (s *Service) Transcribe(ctx context.Context, mediaPath string) (transcribe.Outcome, error) {
	var outcome transcribe.Outcome

	if mediaPath == "" {
		return outcome, fmt.Errorf("media path required")
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return outcome, fmt.Errorf("media file: %w", err)
	}

	workDir, err := os.MkdirTemp("", "subscout-transcribe-")
	if err != nil {
		return outcome, fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "audio.wav")
	if err := s.runner(ctx, FFmpegCommand, extractAudioArgs(mediaPath, audioPath)...); err != nil {
		return outcome, fmt.Errorf("extracting audio: %w", err)
	}

	if err := s.runner(ctx, WhisperCommand, s.whisperArgs(audioPath, workDir)...); err != nil {
		return outcome, fmt.Errorf("running whisper: %w", err)
	}

	jsonPath := filepath.Join(workDir, "audio.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return outcome, fmt.Errorf("reading transcript: %w", err)
	}

	var output whisperOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return outcome, fmt.Errorf("decoding transcript: %w", err)
	}

	text := strings.TrimSpace(output.Text)
	if text == "" {
		outcome.NoSpeech = true
		s.logger.Debug("no speech found",
			"media", mediaPath,
		)
		return outcome, nil
	}

	outcome.Transcript = text
	s.logger.Debug("transcription complete",
		"media", mediaPath,
		"transcript_len", len(text),
	)

	return outcome, nil
}

var _ transcribe.Transcriber = (*Service)(nil)
