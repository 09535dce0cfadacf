// Package configcmder provides the config command for managing persistent
// subscout configuration stored in the .subscout/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent subscout configuration.

Configuration is stored as config.toml in the .subscout/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, storage.sqlite_path, client.api_target,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  transcribe.model, ingest.chunk_cues,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  subscout config set <key> <value>    Set a configuration value
  subscout config get <key>            Get a configuration value
  subscout config list                 List all configuration values

Examples:
  subscout config set embedding.model nomic-embed-text
  subscout config set vector_store.provider qdrant
  subscout config get embedding.model
  subscout config list`

const configShortDesc string = "Manage persistent subscout configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
