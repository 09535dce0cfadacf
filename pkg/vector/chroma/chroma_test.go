package chroma_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/vector"
	"github.com/echoplexco/subscout/pkg/vector/chroma"
)

// fakeChroma is a minimal in-process stand-in for the Chroma v2 REST API,
// just enough surface for the index contract tests.
type fakeChroma struct {
	created map[string]any // create-request metadata, for assertions
	ids     []string
	queryFn func() map[string]any
	count   int
}

func (f *fakeChroma) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/collections/subtitle_embeddings"):
			// Force creation path.
			http.Error(w, "not found", http.StatusNotFound)

		case r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/collections"):
			var req map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			f.created = req
			Expect(json.NewEncoder(w).Encode(map[string]string{
				"id":   "col-1",
				"name": "subtitle_embeddings",
			})).To(Succeed())

		case strings.HasSuffix(r.URL.Path, "/col-1/get"):
			existing := []string{}
			var req struct {
				IDs []string `json:"ids"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			for _, id := range req.IDs {
				for _, have := range f.ids {
					if id == have {
						existing = append(existing, id)
					}
				}
			}
			Expect(json.NewEncoder(w).Encode(map[string]any{"ids": existing})).To(Succeed())

		case strings.HasSuffix(r.URL.Path, "/col-1/add"):
			var req struct {
				IDs []string `json:"ids"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			f.ids = append(f.ids, req.IDs...)
			f.count = len(f.ids)
			w.WriteHeader(http.StatusCreated)

		case strings.HasSuffix(r.URL.Path, "/col-1/query"):
			Expect(json.NewEncoder(w).Encode(f.queryFn())).To(Succeed())

		case strings.HasSuffix(r.URL.Path, "/col-1/count"):
			Expect(json.NewEncoder(w).Encode(f.count)).To(Succeed())

		default:
			http.Error(w, "unexpected request: "+r.URL.Path, http.StatusTeapot)
		}
	})
}

var _ = Describe("Index", func() {
	var (
		fake   *fakeChroma
		server *httptest.Server
		idx    *chroma.Index
		ctx    context.Context
	)

	BeforeEach(func() {
		fake = &fakeChroma{}
		server = httptest.NewServer(fake.handler())

		var err error
		idx, err = chroma.NewIndex(chroma.Config{URL: server.URL}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("NewIndex", func() {
		It("returns an error when URL is empty", func() {
			_, err := chroma.NewIndex(chroma.Config{URL: ""}, logger.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("creates the collection with cosine distance", func() {
			metadata, ok := fake.created["metadata"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(metadata["hnsw:space"]).To(Equal("cosine"))
		})
	})

	Describe("Insert", func() {
		It("rejects a duplicate chunk id", func() {
			Expect(idx.Insert(ctx, vector.Chunk{ID: "a", Embedding: []float32{1, 0}})).To(Succeed())

			err := idx.Insert(ctx, vector.Chunk{ID: "a", Embedding: []float32{0, 1}})
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})

		It("rejects a duplicate within a single batch", func() {
			err := idx.Insert(ctx,
				vector.Chunk{ID: "a", Embedding: []float32{1, 0}},
				vector.Chunk{ID: "a", Embedding: []float32{0, 1}},
			)
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})
	})

	Describe("Query", func() {
		It("returns an empty slice on an empty collection", func() {
			matches, err := idx.Query(ctx, []float32{1, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})

		It("maps documents, metadata, and distances into matches", func() {
			Expect(idx.Insert(ctx, vector.Chunk{ID: "movie_a-1", Embedding: []float32{1, 0}})).To(Succeed())

			fake.queryFn = func() map[string]any {
				return map[string]any{
					"ids":       [][]string{{"movie_a-1"}},
					"distances": [][]float32{{0.25}},
					"documents": [][]string{{"the quick brown fox"}},
					"metadatas": [][]map[string]any{{{
						"source_name":     "movie_a.srt",
						"sequence_number": 1,
					}}},
				}
			}

			matches, err := idx.Query(ctx, []float32{1, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].ID).To(Equal("movie_a-1"))
			Expect(matches[0].Distance).To(Equal(float32(0.25)))
			Expect(matches[0].Text).To(Equal("the quick brown fox"))
			Expect(matches[0].SourceName).To(Equal("movie_a.srt"))
			Expect(matches[0].SequenceNumber).To(Equal(1))
		})

		It("re-sorts equal distances by ascending chunk id", func() {
			Expect(idx.Insert(ctx,
				vector.Chunk{ID: "b", Embedding: []float32{1, 0}},
				vector.Chunk{ID: "a", Embedding: []float32{1, 0}},
			)).To(Succeed())

			fake.queryFn = func() map[string]any {
				return map[string]any{
					"ids":       [][]string{{"b", "a"}},
					"distances": [][]float32{{0.5, 0.5}},
					"documents": [][]string{{"", ""}},
					"metadatas": [][]map[string]any{{{}, {}}},
				}
			}

			matches, err := idx.Query(ctx, []float32{1, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches[0].ID).To(Equal("a"))
			Expect(matches[1].ID).To(Equal("b"))
		})
	})

	Describe("Count", func() {
		It("returns the collection count", func() {
			Expect(idx.Insert(ctx,
				vector.Chunk{ID: "a", Embedding: []float32{1, 0}},
				vector.Chunk{ID: "b", Embedding: []float32{0, 1}},
			)).To(Succeed())

			count, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})
	})

	Describe("Interface compliance", func() {
		It("implements vector.Index", func() {
			var _ vector.Index = (*chroma.Index)(nil)
		})
	})
})
