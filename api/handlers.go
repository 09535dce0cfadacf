package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/echoplexco/subscout/pkg/embeddings"
	"github.com/echoplexco/subscout/pkg/vector"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// StatsResponse reports index statistics.
type StatsResponse struct {
	ChunkCount int `json:"chunk_count"`
}

// handleStats returns statistics about the subtitle index.
func (s *Server) handleStats(c *fiber.Ctx) error {
	count, err := s.retriever.Stats(c.Context())
	if err != nil {
		return s.errorStatus(c, err)
	}

	return c.JSON(StatsResponse{ChunkCount: count})
}

// errorStatus maps a retrieval error to an HTTP error response: 503 when a
// backend is unreachable, 500 otherwise.
func (s *Server) errorStatus(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, embeddings.ErrProviderUnavailable) || errors.Is(err, vector.ErrUnavailable) {
		status = fiber.StatusServiceUnavailable
	}

	s.logger.Error("request failed",
		"path", c.Path(),
		"status", status,
		"error", err,
	)

	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
