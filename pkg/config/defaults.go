package config

const (
	defaultAPIListen       = ":8484"
	defaultClientAPITarget = "http://localhost:8484"

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384

	defaultTranscribeModel = "base"

	defaultChunkCues = 3

	defaultEventsProvider = "nop"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Transcribe: TranscribeConfig{
			Model: defaultTranscribeModel,
		},
		Ingest: IngestConfig{
			ChunkCues: defaultChunkCues,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
		},
	}
}
