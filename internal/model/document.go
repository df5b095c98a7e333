package model

// Document is the audit record of one ingested upload. The chunk payload
// itself lives in the vector store; this row only tracks provenance.
type Document struct {
	ID         string `json:"id"`
	UserID     int64  `json:"user_id"`
	Filename   string `json:"filename"`
	FileKey    string `json:"file_key,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}
