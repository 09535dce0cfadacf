// Package identifycmder provides the identify command for recognizing a
// media clip from its transcribed dialogue.
package identifycmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	searchcmder "github.com/echoplexco/subscout/cmd/subscout/search"
	"github.com/echoplexco/subscout/pkg/cliui"
	"github.com/echoplexco/subscout/pkg/config"
	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/retrieval"
	"github.com/echoplexco/subscout/pkg/transcribe"
	"github.com/echoplexco/subscout/pkg/transcribe/whisper"
)

var (
	matchStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type identifyCommander struct {
	mediaPath string
	topK      int

	transcribeModel string
	apiTarget       string

	debug  bool
	logger *slog.Logger
}

const identifyLongDesc string = `Identify a media clip from its dialogue.

Extracts the audio track from the given media file, transcribes it with
Whisper, and searches the subtitle index for the transcript. The top match
names the most likely source. Requires ffmpeg and whisper on PATH, and a
running subscout API server with subtitles ingested.

Examples:
  subscout identify clip.mp4
  subscout identify clip.mkv --transcribe-model small
  subscout identify clip.mp4 --api-target http://localhost:8484 --top 3`

const identifyShortDesc string = "Identify a media clip from its dialogue"

func NewIdentifyCmd() *cobra.Command {
	cmder := &identifyCommander{}

	cmd := &cobra.Command{
		Use:   "identify <media-file>",
		Short: identifyShortDesc,
		Long:  identifyLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			if !cmd.Flags().Changed("transcribe-model") {
				cmder.transcribeModel = cfg.Transcribe.Model
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.mediaPath = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", retrieval.DefaultK, "Number of candidate matches to return")
	cmd.Flags().StringVar(&cmder.transcribeModel, "transcribe-model", defaults.Transcribe.Model, "Whisper model for transcription (base, small, medium, ...)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Subscout API server URL")

	return cmd
}

func (c *identifyCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	transcriber := whisper.NewService(whisper.Config{
		Model: c.transcribeModel,
	}, c.logger)

	var outcome transcribe.Outcome
	err := cliui.Step(os.Stdout, fmt.Sprintf("Transcribing %s", c.mediaPath), func() error {
		var stepErr error
		outcome, stepErr = transcriber.Transcribe(ctx, c.mediaPath)
		return stepErr
	})
	if err != nil {
		return fmt.Errorf("transcribing %s: %w", c.mediaPath, err)
	}

	if outcome.NoSpeech {
		fmt.Println("No speech detected in clip.")
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		dimStyle.Render("Transcript:"),
		transcriptStyle.Render(outcome.Transcript),
	)

	output, err := searchcmder.SearchAPI(ctx, c.apiTarget, outcome.Transcript, c.topK)
	if err != nil {
		return err
	}

	if output.Count == 0 {
		fmt.Println("No matches found.")
		return nil
	}

	best := output.Results[0]
	fmt.Printf("%s %s %s\n\n",
		matchStyle.Render("Best match:"),
		best.SourceName,
		dimStyle.Render(fmt.Sprintf("(similarity %.3f)", best.Similarity)),
	)

	searchcmder.PrintResults(output.Results)

	return nil
}
