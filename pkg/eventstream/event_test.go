package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echoplexco/subscout/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals ChunkIndexedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.ChunkIndexedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeChunkIndexed,
			EventID:       "evt_123",
			EmittedAt:     now,
			Chunk: eventstream.ChunkMeta{
				ChunkID:        "movie_a.srt-1",
				SourceName:     "movie_a.srt",
				SequenceNumber: 1,
				TextLength:     42,
				Dimensions:     384,
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("chunk"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeChunkIndexed).To(Equal("subscout.chunk.indexed"))
	})

	It("provides ErrNilChunkEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilChunkEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilChunkEvent).To(MatchError("nil chunk event"))
	})
})
