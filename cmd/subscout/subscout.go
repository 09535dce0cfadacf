// Package subscoutcmder
package subscoutcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/echoplexco/subscout/cmd/subscout/config"
	identifycmder "github.com/echoplexco/subscout/cmd/subscout/identify"
	ingestcmder "github.com/echoplexco/subscout/cmd/subscout/ingest"
	searchcmder "github.com/echoplexco/subscout/cmd/subscout/search"
	servecmder "github.com/echoplexco/subscout/cmd/subscout/serve"
	versioncmder "github.com/echoplexco/subscout/cmd/subscout/version"
)

const subscoutLongDesc string = `Subscout identifies film and TV content from subtitle text.

Ingest subtitle files into a vector index, then search them with natural
language or identify a media clip from its transcribed dialogue:

  subscout ingest ./subs       Index every .srt file under a directory
  subscout serve               Run the search API and MCP server
  subscout search "query"      Semantic search over indexed subtitles
  subscout identify clip.mp4   Transcribe a clip and find its source`

const subscoutShortDesc string = "Subscout - Subtitle Content Identification"

func NewSubscoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscout",
		Short: subscoutShortDesc,
		Long:  subscoutLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .subscout config dir (default: ./ or ~/)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(identifycmder.NewIdentifyCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
