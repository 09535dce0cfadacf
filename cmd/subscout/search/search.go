// Package searchcmder provides the search command for semantic search over
// indexed subtitles.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/echoplexco/subscout/api"
	"github.com/echoplexco/subscout/pkg/config"
	"github.com/echoplexco/subscout/pkg/logger"
	"github.com/echoplexco/subscout/pkg/retrieval"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

type searchCommander struct {
	query string
	topK  int
	quiet bool

	apiTarget string

	debug  bool
	logger *slog.Logger
}

const searchLongDesc string = `Search indexed subtitles via the subscout API.

Embeds the query text and returns the most similar subtitle chunks, ranked
by cosine similarity. Requires a running subscout API server with subtitles
ingested.

Use --quiet to output only chunk IDs, one per line, for piping into other
commands.

Example:
  subscout search "i am your father"
  subscout search "inconceivable" --top 10
  subscout search "my precious" --api-target http://localhost:8484
  subscout search "we're gonna need a bigger boat" --quiet`

const searchShortDesc string = "Search indexed subtitles"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", retrieval.DefaultK, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only chunk IDs, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Subscout API server URL")

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	output, err := SearchAPI(ctx, c.apiTarget, c.query, c.topK)
	if err != nil {
		return err
	}

	if output.Count == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range output.Results {
			fmt.Println(result.ChunkID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Search results for:"),
		queryStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	PrintResults(output.Results)

	return nil
}

// PrintResults renders search results as a table. Shared with the identify
// command.
func PrintResults(results []api.SearchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Similarity", "Source", "Seq", "Text"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Text", WidthMax: 60},
		{Name: "Similarity", Align: text.AlignRight},
	})

	for i, result := range results {
		preview := strings.ReplaceAll(result.Text, "\n", " ")
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.3f", result.Similarity),
			result.SourceName,
			result.SequenceNumber,
			preview,
		})
	}

	t.Render()
	fmt.Println()
}

// SearchAPI calls the subscout search API and returns the parsed response.
// Exported so other commands (e.g. identify) can reuse it.
func SearchAPI(ctx context.Context, apiTarget, query string, topK int) (*api.SearchResponse, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"
	q := searchURL.Query()
	q.Set("query", query)
	q.Set("k", strconv.Itoa(topK))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to subscout API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("search failed: %s", errResp.Error)
		}
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var output api.SearchResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return &output, nil
}
