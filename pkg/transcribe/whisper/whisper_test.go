package whisper_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/transcribe/whisper"
)

var _ = Describe("Service", func() {
	var (
		service   *whisper.Service
		mediaPath string
		ctx       context.Context
	)

	// fakeRunner pretends to be ffmpeg and whisper: it creates the WAV
	// on extract and writes the transcript JSON on transcribe.
	fakeRunner := func(transcriptJSON string) func(ctx context.Context, name string, args ...string) error {
		return func(_ context.Context, name string, args ...string) error {
			switch name {
			case whisper.FFmpegCommand:
				dest := args[len(args)-1]
				return os.WriteFile(dest, []byte("wav"), 0o644)
			case whisper.WhisperCommand:
				var outputDir string
				for i, arg := range args {
					if arg == "--output_dir" && i+1 < len(args) {
						outputDir = args[i+1]
					}
				}
				Expect(outputDir).NotTo(BeEmpty())
				return os.WriteFile(filepath.Join(outputDir, "audio.json"), []byte(transcriptJSON), 0o644)
			default:
				return fmt.Errorf("unexpected command %s", name)
			}
		}
	}

	BeforeEach(func() {
		service = whisper.NewService(whisper.Config{}, logger.Nop())
		mediaPath = filepath.Join(GinkgoT().TempDir(), "clip.mp4")
		Expect(os.WriteFile(mediaPath, []byte("fake video"), 0o644)).To(Succeed())
		ctx = context.Background()
	})

	It("defaults to the base model", func() {
		Expect(service.Model()).To(Equal("base"))
	})

	It("returns the transcript text", func() {
		service.WithCommandRunner(fakeRunner(`{"text": " Hello there. General Kenobi. "}`))

		outcome, err := service.Transcribe(ctx, mediaPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.NoSpeech).To(BeFalse())
		Expect(outcome.Transcript).To(Equal("Hello there. General Kenobi."))
	})

	It("reports no speech instead of failing on an empty transcript", func() {
		service.WithCommandRunner(fakeRunner(`{"text": "   "}`))

		outcome, err := service.Transcribe(ctx, mediaPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.NoSpeech).To(BeTrue())
		Expect(outcome.Transcript).To(BeEmpty())
	})

	It("fails when the media file does not exist", func() {
		service.WithCommandRunner(fakeRunner(`{"text": "hi"}`))

		_, err := service.Transcribe(ctx, filepath.Join(GinkgoT().TempDir(), "missing.mp4"))
		Expect(err).To(HaveOccurred())
	})

	It("fails when audio extraction fails", func() {
		service.WithCommandRunner(func(_ context.Context, name string, _ ...string) error {
			return fmt.Errorf("%s exploded", name)
		})

		_, err := service.Transcribe(ctx, mediaPath)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("extracting audio"))
	})

	It("passes the configured model to whisper", func() {
		service = whisper.NewService(whisper.Config{Model: "small"}, logger.Nop())

		var whisperArgs []string
		service.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
			switch name {
			case whisper.FFmpegCommand:
				return os.WriteFile(args[len(args)-1], []byte("wav"), 0o644)
			case whisper.WhisperCommand:
				whisperArgs = args
				var outputDir string
				for i, arg := range args {
					if arg == "--output_dir" && i+1 < len(args) {
						outputDir = args[i+1]
					}
				}
				return os.WriteFile(filepath.Join(outputDir, "audio.json"), []byte(`{"text": "hi"}`), 0o644)
			}
			return nil
		})

		_, err := service.Transcribe(ctx, mediaPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(whisperArgs).To(ContainElement("small"))
	})
})
