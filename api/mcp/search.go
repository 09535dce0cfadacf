package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/echoplexco/subscout/pkg/retrieval"
)

var (
	searchToolName    = "search_subtitles"
	searchDescription = "Search indexed subtitle files using semantic search. Given a piece of dialogue (e.g. a transcribed movie clip), returns the most similar subtitle chunks with their source file and similarity score. Use this to identify which film or episode a line of dialogue comes from."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the dialogue text to search for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5, max: 10)"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ChunkID        string  `json:"chunk_id"`
	SourceName     string  `json:"source_name"`
	SequenceNumber int     `json:"sequence_number"`
	Text           string  `json:"text"`
	Similarity     float64 `json:"similarity"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP search request",
		"query", input.Query,
		"top_k", input.TopK,
	)

	results, err := s.config.Retriever.Search(ctx, input.Query, input.TopK)
	if err != nil {
		logger.Error("search failed",
			"error", err,
		)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Search failed: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, r := range results {
		searchResults = append(searchResults, SearchResult{
			ChunkID:        r.ChunkID,
			SourceName:     r.SourceName,
			SequenceNumber: r.SequenceNumber,
			Text:           r.Text,
			Similarity:     retrieval.RoundSimilarity(r.Similarity),
		})
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: searchResults,
		Count:   len(searchResults),
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output",
			"error", err,
		)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
