package semantic

// Payload keys for stored chunk metadata.
const (
	KeyText           = "text"
	KeyChannelID      = "channel_id"
	KeyTimestamp      = "timestamp"
	KeySource         = "source"
	KeyType           = "type"
	KeyTranscriptName = "transcript_name"
	KeyChunkIndex     = "chunk_index"
	KeyTotalChunks    = "total_chunks"
)

// DocTypeTranscript is the payload type tag for transcript chunks.
const DocTypeTranscript = "transcript"

// DefaultDims is the embedding dimension of the collection.
const DefaultDims = 3072

// PlaceholderVector returns the constant stand-in embedding used when no real
// embedding is available. Queries issued with it degrade to pure
// metadata-filter recall.
func PlaceholderVector(dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = 0.1
	}
	return v
}

// VectorRecord is a single vector to store in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any
}

// Hit is a single vector search match with its decoded payload.
type Hit struct {
	ID             string              `json:"id"`
	Score          float32             `json:"score"`
	Text           string              `json:"text"`
	ChannelID      string              `json:"channel_id"`
	Timestamp      string              `json:"timestamp"`
	Source         string              `json:"source"`
	TranscriptName string              `json:"transcript_name"`
	ChunkIndex     int                 `json:"chunk_index"`
	TotalChunks    int                 `json:"total_chunks"`
	Sections       map[string][]string `json:"sections,omitempty"`
	Meta           map[string]string   `json:"meta,omitempty"`
}

// Filters are equality constraints on payload keys. Values may be string or
// int; anything else is matched on its string form.
type Filters map[string]any
