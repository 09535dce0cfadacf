// Package ingestcmder provides the ingest command for indexing subtitle files.
package ingestcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	servecmder "github.com/echoplexco/subscout/cmd/subscout/serve"
	"github.com/echoplexco/subscout/pkg/config"
	embeddingutils "github.com/echoplexco/subscout/pkg/embeddings/utils"
	eventstreamutils "github.com/echoplexco/subscout/pkg/eventstream/utils"
	"github.com/echoplexco/subscout/pkg/ingest"
	"github.com/echoplexco/subscout/pkg/logger"
	vectorutils "github.com/echoplexco/subscout/pkg/vector/utils"
)

type ingestCommander struct {
	dir   string
	watch bool

	sqlitePath  string
	vectorProv  string
	vectorTgt   string
	embedProv   string
	embedTgt    string
	embedModel  string
	embedDims   uint
	chunkCues   uint
	eventsProv  string
	eventsTopic string

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *slog.Logger
}

const ingestLongDesc string = `Ingest subtitle files into the vector index.

Walks the given directory for .srt files, strips distributor advertisement
cues, groups the remaining cues into chunks, embeds each chunk, and inserts
it into the configured vector store. A file that was already ingested is
skipped and reported.

With --watch, ingestion keeps running after the initial walk and indexes
new or modified .srt files as they appear, until interrupted.

When an event publisher is configured (events.provider = kafka), one
chunk-indexed event is published per inserted chunk.

Examples:
  subscout ingest ./subs
  subscout ingest ./subs --watch
  subscout ingest ./subs --chunk-cues 5 --events-provider kafka`

const ingestShortDesc string = "Ingest subtitle files into the vector index"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	flagKeys := []string{
		config.FlagSQLite,
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
		config.FlagChunkCues,
		config.FlagEventsProvider,
		config.FlagEventsTopic,
	}

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), flagKeys)
			cmder.v = v

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.dir = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddUintFlag(cmd, fs, config.FlagChunkCues, &cmder.chunkCues)
	config.AddStringFlag(cmd, fs, config.FlagEventsProvider, &cmder.eventsProv)
	config.AddStringFlag(cmd, fs, config.FlagEventsTopic, &cmder.eventsTopic)

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep watching the directory for new subtitle files")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	provider, err := embeddingutils.NewProvider(&embeddingutils.NewProviderOpts{
		ProviderType: c.v.GetString("embedding.provider"),
		TargetURL:    c.v.GetString("embedding.target"),
		Model:        c.v.GetString("embedding.model"),
		APIKey:       os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer provider.Close()

	indexOpts, err := servecmder.IndexOpts(c.v, c.configDir, c.logger)
	if err != nil {
		return err
	}

	index, err := vectorutils.NewIndex(ctx, indexOpts)
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	defer index.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.v.GetString("events.provider"),
		Brokers:      c.v.GetStringSlice("events.brokers"),
		Topic:        c.v.GetString("events.topic"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	ingester := ingest.NewIngester(
		provider,
		index,
		publisher,
		int(c.v.GetUint("ingest.chunk_cues")),
		c.logger,
	)

	stats, err := ingester.IngestDir(ctx, c.dir)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", c.dir, err)
	}

	printStats(stats)

	if !c.watch {
		return nil
	}

	watchCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Watching %s for new subtitle files. Press Ctrl-C to stop.\n", c.dir)
	if err := ingester.Watch(watchCtx, c.dir); err != nil && watchCtx.Err() == nil {
		return fmt.Errorf("watching %s: %w", c.dir, err)
	}
	return nil
}

func printStats(stats ingest.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Sources Indexed", "Sources Failed", "Chunks Indexed", "Ad Cues Removed"})
	t.AppendRow(table.Row{stats.SourcesIndexed, stats.SourcesFailed, stats.ChunksIndexed, stats.AdCuesRemoved})
	t.Render()
}
