package memory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/vector"
	"github.com/echoplexco/subscout/pkg/vector/memory"
)

var _ = Describe("Index", func() {
	var (
		idx *memory.Index
		ctx context.Context
	)

	chunk := func(id string, embedding ...float32) vector.Chunk {
		return vector.Chunk{
			ID:         id,
			SourceName: "movie_a.srt",
			Text:       "text for " + id,
			Embedding:  embedding,
		}
	}

	BeforeEach(func() {
		idx = memory.NewIndex(logger.Nop())
		ctx = context.Background()
	})

	Describe("Insert", func() {
		It("accepts an empty batch", func() {
			Expect(idx.Insert(ctx)).To(Succeed())
		})

		It("stores chunks and counts them", func() {
			Expect(idx.Insert(ctx,
				chunk("a", 1, 0),
				chunk("b", 0, 1),
			)).To(Succeed())

			count, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("rejects a duplicate id", func() {
			Expect(idx.Insert(ctx, chunk("a", 1, 0))).To(Succeed())

			err := idx.Insert(ctx, chunk("a", 0, 1))
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})

		It("rejects the whole batch on a duplicate, storing nothing from it", func() {
			Expect(idx.Insert(ctx, chunk("a", 1, 0))).To(Succeed())

			err := idx.Insert(ctx, chunk("b", 0, 1), chunk("a", 1, 1))
			Expect(err).To(MatchError(vector.ErrDuplicateID))

			count, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("rejects a duplicate within a single batch", func() {
			err := idx.Insert(ctx, chunk("a", 1, 0), chunk("a", 0, 1))
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})

		It("rejects mismatched dimensions", func() {
			Expect(idx.Insert(ctx, chunk("a", 1, 0))).To(Succeed())

			err := idx.Insert(ctx, chunk("b", 1, 0, 0))
			Expect(err).To(MatchError(vector.ErrDimension))
		})

		It("rejects an internally inconsistent first batch", func() {
			err := idx.Insert(ctx, chunk("a", 1, 0, 0), chunk("b", 1, 0))
			Expect(err).To(MatchError(vector.ErrDimension))

			count, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("stays reusable after a rejected first batch", func() {
			err := idx.Insert(ctx, chunk("a", 1, 0, 0), chunk("b", 1, 0))
			Expect(err).To(MatchError(vector.ErrDimension))

			// The rejected batch must not have locked in a dimensionality.
			Expect(idx.Insert(ctx, chunk("c", 1, 0), chunk("d", 0, 1))).To(Succeed())

			count, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})
	})

	Describe("Query", func() {
		It("returns an empty slice on an empty index", func() {
			matches, err := idx.Query(ctx, []float32{1, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})

		It("rejects k < 1", func() {
			_, err := idx.Query(ctx, []float32{1, 0}, 0)
			Expect(err).To(HaveOccurred())
		})

		It("returns min(k, count) matches", func() {
			Expect(idx.Insert(ctx,
				chunk("a", 1, 0),
				chunk("b", 0, 1),
				chunk("c", 1, 1),
			)).To(Succeed())

			matches, err := idx.Query(ctx, []float32{1, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))

			matches, err = idx.Query(ctx, []float32{1, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(3))
		})

		It("orders matches by ascending distance", func() {
			Expect(idx.Insert(ctx,
				chunk("far", -1, 0),
				chunk("near", 1, 0),
				chunk("mid", 1, 1),
			)).To(Succeed())

			matches, err := idx.Query(ctx, []float32{1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches[0].ID).To(Equal("near"))
			Expect(matches[1].ID).To(Equal("mid"))
			Expect(matches[2].ID).To(Equal("far"))

			for i := 1; i < len(matches); i++ {
				Expect(matches[i].Distance).To(BeNumerically(">=", matches[i-1].Distance))
			}
		})

		It("breaks distance ties by ascending chunk id", func() {
			// Same direction, different magnitude: identical cosine distance.
			Expect(idx.Insert(ctx,
				chunk("b", 2, 0),
				chunk("a", 1, 0),
				chunk("c", 3, 0),
			)).To(Succeed())

			matches, err := idx.Query(ctx, []float32{1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches[0].ID).To(Equal("a"))
			Expect(matches[1].ID).To(Equal("b"))
			Expect(matches[2].ID).To(Equal("c"))
		})

		It("returns the inserted chunk first with near-zero distance for its own embedding", func() {
			Expect(idx.Insert(ctx,
				chunk("self", 0.3, 0.4, 0.5),
				chunk("other", -0.5, 0.1, 0.2),
			)).To(Succeed())

			matches, err := idx.Query(ctx, []float32{0.3, 0.4, 0.5}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].ID).To(Equal("self"))
			Expect(matches[0].Distance).To(BeNumerically("~", 0, 1e-6))
		})

		It("treats a zero-norm query as equidistant from everything", func() {
			Expect(idx.Insert(ctx, chunk("a", 1, 0), chunk("b", 0, 1))).To(Succeed())

			matches, err := idx.Query(ctx, []float32{0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))
			Expect(matches[0].Distance).To(Equal(float32(1)))
			Expect(matches[1].Distance).To(Equal(float32(1)))
			// Tie-break still deterministic.
			Expect(matches[0].ID).To(Equal("a"))
		})

		It("carries chunk metadata through to matches", func() {
			in := vector.Chunk{
				ID:             "movie_a-10",
				SourceName:     "movie_a.srt",
				SequenceNumber: 10,
				Text:           "the quick brown fox",
				Embedding:      []float32{1, 2, 3},
			}
			Expect(idx.Insert(ctx, in)).To(Succeed())

			matches, err := idx.Query(ctx, []float32{1, 2, 3}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches[0].SourceName).To(Equal("movie_a.srt"))
			Expect(matches[0].SequenceNumber).To(Equal(10))
			Expect(matches[0].Text).To(Equal("the quick brown fox"))
		})

		It("rejects a query with mismatched dimensions", func() {
			Expect(idx.Insert(ctx, chunk("a", 1, 0))).To(Succeed())

			_, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimension))
		})
	})

	Describe("Interface compliance", func() {
		It("implements vector.Index", func() {
			var _ vector.Index = (*memory.Index)(nil)
		})
	})
})
