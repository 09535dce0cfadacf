package subtitles

import (
	"fmt"
	"strings"

	"github.com/echoplexco/subscout/pkg/normalize"
)

// DefaultChunkCues is the default number of consecutive cues grouped into one
// chunk. A single cue is usually too short to embed meaningfully; a handful
// of consecutive cues carries enough dialogue to identify.
const DefaultChunkCues = 3

// ChunkRecord is a normalized group of consecutive cues ready for embedding.
type ChunkRecord struct {
	// ID is "<source>-<sequence>", unique across a corpus of sources.
	ID string

	// SourceName is the subtitle file the chunk came from.
	SourceName string

	// SequenceNumber is the chunk's 1-based position within its source.
	SequenceNumber int

	// Text is the chunk's dialogue after normalization.
	Text string
}

// Chunker groups cues into fixed-size chunks.
type Chunker struct {
	cuesPerChunk int
}

// NewChunker creates a chunker grouping the given number of cues per chunk.
// Values below 1 fall back to DefaultChunkCues.
func NewChunker(cuesPerChunk int) *Chunker {
	if cuesPerChunk < 1 {
		cuesPerChunk = DefaultChunkCues
	}
	return &Chunker{cuesPerChunk: cuesPerChunk}
}

// Chunk groups the cues of one source into normalized chunks. Cues whose
// text normalizes to nothing are dropped; a trailing short group still forms
// a chunk. Chunks that end up empty are skipped so every record has text to
// embed.
func (c *Chunker) Chunk(sourceName string, cues []Cue) []ChunkRecord {
	var records []ChunkRecord
	sequence := 0

	for start := 0; start < len(cues); start += c.cuesPerChunk {
		end := start + c.cuesPerChunk
		if end > len(cues) {
			end = len(cues)
		}

		parts := make([]string, 0, end-start)
		for _, cue := range cues[start:end] {
			parts = append(parts, cue.Text)
		}

		text := normalize.Normalize(strings.Join(parts, " "))
		if text == "" {
			continue
		}

		sequence++
		records = append(records, ChunkRecord{
			ID:             fmt.Sprintf("%s-%d", sourceName, sequence),
			SourceName:     sourceName,
			SequenceNumber: sequence,
			Text:           text,
		})
	}

	return records
}
