package retrieval_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/retrieval"
	testutils "github.com/echoplexco/subscout/pkg/utils/test"
	"github.com/echoplexco/subscout/pkg/vector"
)

var _ = Describe("Service", func() {
	var (
		embedder *testutils.MockEmbedder
		index    *testutils.MockIndex
		service  *retrieval.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		index = testutils.NewMockIndex()
		service = retrieval.NewService(embedder, index, logger.Nop())
		ctx = context.Background()
	})

	Describe("Search", func() {
		It("returns matches as similarities in descending order", func() {
			index.Matches = []vector.Match{
				{Chunk: vector.Chunk{ID: "movie_b-4", SourceName: "movie_b.srt", SequenceNumber: 4, Text: "nearer"}, Distance: 0.1},
				{Chunk: vector.Chunk{ID: "movie_a-1", SourceName: "movie_a.srt", SequenceNumber: 1, Text: "farther"}, Distance: 0.6},
			}

			results, err := service.Search(ctx, "some dialogue", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			Expect(results[0].ChunkID).To(Equal("movie_b-4"))
			Expect(results[0].Similarity).To(BeNumerically("~", 0.9, 1e-6))
			Expect(results[0].SourceName).To(Equal("movie_b.srt"))
			Expect(results[0].SequenceNumber).To(Equal(4))
			Expect(results[0].Text).To(Equal("nearer"))

			Expect(results[1].ChunkID).To(Equal("movie_a-1"))
			Expect(results[1].Similarity).To(BeNumerically("~", 0.4, 1e-6))
		})

		It("breaks similarity ties by ascending chunk id", func() {
			index.Matches = []vector.Match{
				{Chunk: vector.Chunk{ID: "movie_b-2"}, Distance: 0.5},
				{Chunk: vector.Chunk{ID: "movie_a-7"}, Distance: 0.5},
			}

			results, err := service.Search(ctx, "tied", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].ChunkID).To(Equal("movie_a-7"))
			Expect(results[1].ChunkID).To(Equal("movie_b-2"))
		})

		It("normalizes the query before embedding it", func() {
			embedder.FailOn = "hello world"

			_, err := service.Search(ctx, "  Hello,   WORLD!  ", 5)
			// "hello, world!" normalizes case and whitespace but keeps
			// punctuation, so the failure trigger only fires if
			// normalization ran.
			Expect(err).NotTo(HaveOccurred())

			embedder.FailOn = "hello, world!"
			_, err = service.Search(ctx, "  Hello,   WORLD!  ", 5)
			Expect(err).To(HaveOccurred())
		})

		It("still searches an empty query", func() {
			index.Matches = []vector.Match{
				{Chunk: vector.Chunk{ID: "movie_a-1"}, Distance: 0.9},
			}

			results, err := service.Search(ctx, "   ", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("returns an empty slice when the index is empty", func() {
			results, err := service.Search(ctx, "anything", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("clamps k to the supported range", func() {
			for i := 0; i < 20; i++ {
				index.Matches = append(index.Matches, vector.Match{
					Chunk:    vector.Chunk{ID: string(rune('a' + i))},
					Distance: float32(i) / 100,
				})
			}

			results, err := service.Search(ctx, "q", 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(retrieval.MaxK))

			results, err = service.Search(ctx, "q", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(retrieval.DefaultK))
		})

		It("propagates embedding provider failures", func() {
			embedder.Err = context.DeadlineExceeded

			_, err := service.Search(ctx, "q", 5)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})

		It("propagates index failures", func() {
			index.QueryErr = vector.ErrUnavailable

			_, err := service.Search(ctx, "q", 5)
			Expect(err).To(MatchError(vector.ErrUnavailable))
		})
	})

	Describe("Stats", func() {
		It("reports the indexed chunk count", func() {
			Expect(index.Insert(ctx,
				vector.Chunk{ID: "a"},
				vector.Chunk{ID: "b"},
				vector.Chunk{ID: "c"},
			)).To(Succeed())

			count, err := service.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))
		})
	})
})

var _ = Describe("ClampK", func() {
	DescribeTable("folds requests into the supported range",
		func(in, want int) {
			Expect(retrieval.ClampK(in)).To(Equal(want))
		},
		Entry("zero means default", 0, 5),
		Entry("below minimum", -3, 1),
		Entry("at minimum", 1, 1),
		Entry("in range", 7, 7),
		Entry("at maximum", 10, 10),
		Entry("above maximum", 11, 10),
	)
})

var _ = Describe("RoundSimilarity", func() {
	It("rounds to three decimal places", func() {
		Expect(retrieval.RoundSimilarity(0.87654)).To(Equal(0.877))
		Expect(retrieval.RoundSimilarity(0.1234)).To(Equal(0.123))
		Expect(retrieval.RoundSimilarity(-0.4567)).To(Equal(-0.457))
	})
})
