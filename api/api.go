package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/echoplexco/subscout/pkg/retrieval"
)

// ErrorResponse is the JSON error body returned by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for querying the subtitle index.
type Server struct {
	config    Config
	retriever *retrieval.Service
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The retriever is injected to allow
// sharing with other components (e.g., the MCP server).
func NewServer(config Config, retriever *retrieval.Service, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		retriever: retriever,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearchGet)
	app.Post("/v1/search", s.handleSearchPost)
	app.Get("/v1/stats", s.handleStats)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}
