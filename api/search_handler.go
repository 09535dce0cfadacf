package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/echoplexco/subscout/pkg/normalize"
	"github.com/echoplexco/subscout/pkg/retrieval"
)

// SearchResult is one ranked hit in a search response. Similarity is rounded
// to three decimal places for display.
type SearchResult struct {
	ChunkID        string  `json:"chunk_id"`
	SourceName     string  `json:"source_name"`
	SequenceNumber int     `json:"sequence_number"`
	Text           string  `json:"text"`
	Similarity     float64 `json:"similarity"`
}

// SearchResponse is the body returned by the search endpoints. Count echoes
// len(results) so an empty result list is distinguishable from a failure at
// a glance.
type SearchResponse struct {
	Query           string         `json:"query"`
	NormalizedQuery string         `json:"normalized_query"`
	K               int            `json:"k"`
	Results         []SearchResult `json:"results"`
	Count           int            `json:"count"`
}

// searchRequest is the POST /v1/search request body.
type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// handleSearchGet handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - k (optional, default 5, max 10): number of results to return
func (s *Server) handleSearchGet(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	k := 0
	if kStr := c.Query("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "k must be a non-negative integer",
			})
		}
		k = parsed
	}

	return s.search(c, query, k)
}

// handleSearchPost handles POST /v1/search requests with a JSON body.
func (s *Server) handleSearchPost(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query field is required",
		})
	}
	if req.K < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "k must be a non-negative integer",
		})
	}

	return s.search(c, req.Query, req.K)
}

func (s *Server) search(c *fiber.Ctx, query string, k int) error {
	results, err := s.retriever.Search(c.Context(), query, k)
	if err != nil {
		return s.errorStatus(c, err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			ChunkID:        r.ChunkID,
			SourceName:     r.SourceName,
			SequenceNumber: r.SequenceNumber,
			Text:           r.Text,
			Similarity:     retrieval.RoundSimilarity(r.Similarity),
		})
	}

	return c.JSON(SearchResponse{
		Query:           query,
		NormalizedQuery: normalize.Normalize(query),
		K:               retrieval.ClampK(k),
		Results:         out,
		Count:           len(out),
	})
}
