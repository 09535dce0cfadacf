package ingest_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echoplexco/subscout/pkg/eventstream"
	"github.com/echoplexco/subscout/pkg/ingest"
	"github.com/echoplexco/subscout/pkg/logger"
	testutils "github.com/echoplexco/subscout/pkg/utils/test"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,000
Hello there.

2
00:00:04,000 --> 00:00:06,000
General Kenobi!

3
00:00:07,000 --> 00:00:09,000
You are a bold one.

4
00:00:10,000 --> 00:00:12,000
Subtitles by SomeGroup
`

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	events []*eventstream.ChunkIndexedEvent
}

func (p *capturingPublisher) PublishChunk(_ context.Context, event *eventstream.ChunkIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilChunkEvent
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

var _ = Describe("Ingester", func() {
	var (
		embedder  *testutils.MockEmbedder
		index     *testutils.MockIndex
		publisher *capturingPublisher
		ingester  *ingest.Ingester
		dir       string
		ctx       context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		index = testutils.NewMockIndex()
		publisher = &capturingPublisher{}
		ingester = ingest.NewIngester(embedder, index, publisher, 3, logger.Nop())
		dir = GinkgoT().TempDir()
		ctx = context.Background()
	})

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	Describe("IngestFile", func() {
		It("parses, cleans, chunks, embeds, and inserts", func() {
			path := writeFile("movie_a.srt", sampleSRT)

			stats, err := ingester.IngestFile(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.ChunksIndexed).To(Equal(1))
			Expect(stats.AdCuesRemoved).To(Equal(1))

			Expect(index.Chunks).To(HaveLen(1))
			chunk := index.Chunks[0]
			Expect(chunk.ID).To(Equal("movie_a.srt-1"))
			Expect(chunk.SourceName).To(Equal("movie_a.srt"))
			Expect(chunk.SequenceNumber).To(Equal(1))
			Expect(chunk.Text).To(Equal("hello there. general kenobi! you are a bold one."))
			Expect(chunk.Embedding).NotTo(BeEmpty())
		})

		It("publishes an event per indexed chunk", func() {
			path := writeFile("movie_a.srt", sampleSRT)

			_, err := ingester.IngestFile(ctx, path)
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.events).To(HaveLen(1))
			event := publisher.events[0]
			Expect(event.EventType).To(Equal(eventstream.EventTypeChunkIndexed))
			Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(event.EventID).NotTo(BeEmpty())
			Expect(event.Chunk.ChunkID).To(Equal("movie_a.srt-1"))
			Expect(event.Chunk.SourceName).To(Equal("movie_a.srt"))
		})

		It("returns zero stats for a subtitle with no usable cues", func() {
			path := writeFile("effects.srt", "1\n00:00:01,000 --> 00:00:02,000\n[music]\n")

			stats, err := ingester.IngestFile(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.ChunksIndexed).To(Equal(0))
			Expect(index.Chunks).To(BeEmpty())
		})

		It("fails for an unreadable file", func() {
			_, err := ingester.IngestFile(ctx, filepath.Join(dir, "missing.srt"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("IngestDir", func() {
		It("ingests every srt file and skips other extensions", func() {
			writeFile("movie_a.srt", sampleSRT)
			writeFile("movie_b.srt", sampleSRT)
			writeFile("notes.txt", "not a subtitle")

			stats, err := ingester.IngestDir(ctx, dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.SourcesIndexed).To(Equal(2))
			Expect(stats.SourcesFailed).To(Equal(0))
			Expect(stats.ChunksIndexed).To(Equal(2))
			Expect(index.Chunks).To(HaveLen(2))
		})

		It("walks subdirectories", func() {
			sub := filepath.Join(dir, "season1")
			Expect(os.MkdirAll(sub, 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(sub, "ep1.srt"), []byte(sampleSRT), 0o644)).To(Succeed())

			stats, err := ingester.IngestDir(ctx, dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.SourcesIndexed).To(Equal(1))
		})

		It("continues past files that fail to embed", func() {
			writeFile("movie_a.srt", sampleSRT)
			writeFile("movie_b.srt", "1\n00:00:01,000 --> 00:00:02,000\nboom\n")
			embedder.FailOn = "boom"

			stats, err := ingester.IngestDir(ctx, dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.SourcesIndexed).To(Equal(1))
			Expect(stats.SourcesFailed).To(Equal(1))
		})

		It("fails for a missing directory", func() {
			_, err := ingester.IngestDir(ctx, filepath.Join(dir, "nope"))
			Expect(err).To(HaveOccurred())
		})
	})
})
