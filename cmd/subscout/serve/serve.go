// Package servecmder provides the serve command for running the subscout services.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/echoplexco/subscout/api"
	"github.com/echoplexco/subscout/api/mcp"
	"github.com/echoplexco/subscout/pkg/config"
	"github.com/echoplexco/subscout/pkg/dotdir"
	"github.com/echoplexco/subscout/pkg/embeddings"
	embeddingutils "github.com/echoplexco/subscout/pkg/embeddings/utils"
	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/retrieval"
	"github.com/echoplexco/subscout/pkg/vector"
	vectorutils "github.com/echoplexco/subscout/pkg/vector/utils"
)

type serveCommander struct {
	apiListen string
	mcpListen string
	noMCP     bool

	sqlitePath  string
	vectorProv  string
	vectorTgt   string
	embedProv   string
	embedTgt    string
	embedModel  string
	embedDims   uint
	debug       bool
	configDir   string
	v           *viper.Viper
	logger      *slog.Logger
}

const serveLongDesc string = `Run the subscout servers.

Starts the search API server (REST) and the MCP server (streamable HTTP)
together. The API server answers /v1/search and /v1/stats; the MCP server
exposes the search_subtitles tool to agent clients.

Flags override config file values, which override defaults. Environment
variables with the SUBSCOUT_ prefix (e.g. SUBSCOUT_API_LISTEN) sit between
flags and the config file.

Examples:
  subscout serve
  subscout serve --listen :9000 --vector-store-provider qdrant --vector-store-target localhost:6334
  subscout serve --embedding-provider openai --embedding-model text-embedding-3-small --embedding-dimensions 1536`

const serveShortDesc string = "Run the search API and MCP servers"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	flagKeys := []string{
		config.FlagAPIListen,
		config.FlagSQLite,
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embedDims)

	cmd.Flags().StringVar(&cmder.mcpListen, "mcp-listen", ":8485", "Address for the MCP server to listen on")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP server")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithJSON(true))

	provider, index, err := c.buildBackends(ctx)
	if err != nil {
		return err
	}
	defer index.Close()
	defer provider.Close()

	retriever := retrieval.NewService(provider, index, c.logger)

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.v.GetString("api.listen"),
	}, retriever, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Retriever: retriever,
		Noop:      c.noMCP,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	c.logger.Info("starting api server",
		slog.String("api_addr", c.v.GetString("api.listen")),
		slog.String("vector_store", c.v.GetString("vector_store.provider")),
		slog.String("embedding_provider", c.v.GetString("embedding.provider")),
		slog.String("embedding_model", c.v.GetString("embedding.model")),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	var mcpHTTP *http.Server
	if !c.noMCP {
		mcpHTTP = &http.Server{
			Addr:              c.mcpListen,
			Handler:           mcpServer.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		c.logger.Info("starting mcp server", slog.String("mcp_addr", c.mcpListen))

		go func() {
			if err := mcpHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("MCP server error: %w", err)
			}
		}()
	}

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if mcpHTTP != nil {
			_ = mcpHTTP.Shutdown(shutdownCtx)
		}
		return apiServer.Shutdown()
	}
}

// buildBackends constructs the embedding provider and vector index from the
// resolved config.
func (c *serveCommander) buildBackends(ctx context.Context) (embeddings.Provider, vector.Index, error) {
	provider, err := embeddingutils.NewProvider(&embeddingutils.NewProviderOpts{
		ProviderType: c.v.GetString("embedding.provider"),
		TargetURL:    c.v.GetString("embedding.target"),
		Model:        c.v.GetString("embedding.model"),
		APIKey:       os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	opts, err := IndexOpts(c.v, c.configDir, c.logger)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}

	index, err := vectorutils.NewIndex(ctx, opts)
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("creating vector index: %w", err)
	}

	return provider, index, nil
}

// IndexOpts resolves vector index options from viper config. The qdrant
// provider expects a host:port target; sqlite falls back to a database file
// inside the .subscout dir when no path is configured.
// Exported so the ingest command can build an identical index.
func IndexOpts(v *viper.Viper, configDir string, log *slog.Logger) (*vectorutils.NewIndexOpts, error) {
	opts := &vectorutils.NewIndexOpts{
		ProviderType: v.GetString("vector_store.provider"),
		TargetURL:    v.GetString("vector_store.target"),
		DBPath:       v.GetString("storage.sqlite_path"),
		Dimensions:   int(v.GetUint("embedding.dimensions")),
		Logger:       log,
	}

	switch opts.ProviderType {
	case "sqlite":
		if opts.DBPath == "" {
			target, err := dotdir.NewManager().Target(configDir)
			if err != nil {
				return nil, fmt.Errorf("resolving sqlite path: %w", err)
			}
			opts.DBPath = filepath.Join(target, "subscout.db")
		}
	case "qdrant":
		host, portStr, err := net.SplitHostPort(opts.TargetURL)
		if err != nil {
			return nil, fmt.Errorf("qdrant target must be host:port: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("qdrant target port: %w", err)
		}
		opts.Host = host
		opts.Port = port
	}

	return opts, nil
}
