package model

// ChunkMeta is stored next to every chunk in the vector index. OwnerID is
// the load-bearing field: retrieval must never hand back a chunk whose
// owner differs from the querying user.
type ChunkMeta struct {
	OwnerID       int64  `json:"owner_id"`
	Source        string `json:"source"`
	SequenceIndex int    `json:"sequence_index"`
	CreatedAt     string `json:"created_at"`
}

// Candidate is one retrieval result. Distance is a dissimilarity score,
// smaller meaning more similar.
type Candidate struct {
	Text     string    `json:"text"`
	Meta     ChunkMeta `json:"meta"`
	Distance float64   `json:"distance"`
}
