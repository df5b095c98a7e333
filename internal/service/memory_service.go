package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mnemo-dev/mnemo/internal/ai"
	"github.com/mnemo-dev/mnemo/internal/chunker"
	"github.com/mnemo-dev/mnemo/internal/config"
	"github.com/mnemo-dev/mnemo/internal/extract"
	"github.com/mnemo-dev/mnemo/internal/filestore"
	"github.com/mnemo-dev/mnemo/internal/model"
	appErr "github.com/mnemo-dev/mnemo/internal/pkg/errors"
	"github.com/mnemo-dev/mnemo/internal/repo"
)

// Index is the vector store surface the orchestrator needs. The concrete
// implementation is vecstore.Store; tests substitute doubles.
type Index interface {
	Upsert(ctx context.Context, ids, texts []string, vectors [][]float32, metas []model.ChunkMeta) error
	Query(ctx context.Context, vector []float32, ownerID int64, k int) ([]model.Candidate, error)
}

// Embedder is the batch embedding surface; ai.Embedder satisfies it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) [][]float32
	ActiveBackend() string
}

// MemoryService ties extraction, chunking, embedding and the vector
// index together for the ingest and retrieval flows. A nil index means
// the store could not be opened at startup; every dependent call then
// reports storage-unavailable instead of failing deeper down.
type MemoryService struct {
	embedder  Embedder
	index     Index
	documents *repo.DocumentRepo
	files     filestore.Store
	chunking  config.ChunkingConfig
}

func NewMemoryService(embedder Embedder, index Index, documents *repo.DocumentRepo, files filestore.Store, chunking config.ChunkingConfig) *MemoryService {
	return &MemoryService{
		embedder:  embedder,
		index:     index,
		documents: documents,
		files:     files,
		chunking:  chunking,
	}
}

type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"ingested_chunks"`
}

// Ingest runs extract -> chunk -> embed -> store for one upload. The
// vector write is all-or-nothing; the audit row and raw-file copy are
// best-effort extras recorded after the index write succeeded.
func (s *MemoryService) Ingest(ctx context.Context, ownerID int64, filename string, data []byte) (*IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.Int64("owner_id", ownerID),
		zap.String("filename", filename),
	)
	if s.index == nil {
		return nil, appErr.ErrStorageUnavailable
	}
	if len(data) == 0 {
		return nil, appErr.ErrEmptyFile
	}

	text := extract.Extract(ctx, filename, data)
	if len(strings.TrimSpace(text)) < s.chunking.MinTextChars {
		return nil, appErr.ErrInsufficientText
	}

	chunks := chunker.Split(text, s.chunking.ChunkSize, s.chunking.Overlap, s.chunking.MaxChunks)
	if len(chunks) == 0 {
		return nil, appErr.ErrNoChunks
	}
	logger.Info("document chunked",
		zap.Int("text_len", len(text)),
		zap.Int("chunks", len(chunks)),
	)

	vectors := s.embedder.EmbedBatch(ctx, chunks, ai.TaskRetrievalDocument)

	docID := uuid.New().String()
	created := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, len(chunks))
	metas := make([]model.ChunkMeta, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New().String()
		metas[i] = model.ChunkMeta{
			OwnerID:       ownerID,
			Source:        filename,
			SequenceIndex: i,
			CreatedAt:     created,
		}
	}
	if err := s.index.Upsert(ctx, ids, chunks, vectors, metas); err != nil {
		logger.Error("vector store write failed", zap.Error(err))
		return nil, appErr.ErrStorageFailed
	}

	fileKey := s.keepOriginal(ctx, docID, filename, data, logger)
	if s.documents != nil {
		doc := &model.Document{
			ID:         docID,
			UserID:     ownerID,
			Filename:   filename,
			FileKey:    fileKey,
			ChunkCount: len(chunks),
			Ctime:      time.Now().Unix(),
		}
		if err := s.documents.Create(ctx, doc); err != nil {
			logger.Warn("document audit record failed", zap.Error(err))
		}
	}

	logger.Info("document ingested", zap.String("document_id", docID), zap.Int("chunks", len(chunks)))
	return &IngestResult{DocumentID: docID, ChunkCount: len(chunks)}, nil
}

// Retrieve embeds the query and asks the index for the owner's nearest
// chunks. Every candidate is re-checked against ownerID even though the
// index already filtered: the native filter is treated as untrusted and
// a cross-owner row is a correctness violation, not a ranking detail.
func (s *MemoryService) Retrieve(ctx context.Context, ownerID int64, query string, topK int) ([]model.Candidate, error) {
	if s.index == nil {
		return nil, appErr.ErrStorageUnavailable
	}
	vectors := s.embedder.EmbedBatch(ctx, []string{query}, ai.TaskRetrievalQuery)
	candidates, err := s.index.Query(ctx, vectors[0], ownerID, topK)
	if err != nil {
		logutil.GetLogger(ctx).Error("vector store query failed", zap.Error(err))
		return nil, appErr.ErrStorageFailed
	}
	filtered := candidates[:0]
	for _, cand := range candidates {
		if cand.Meta.OwnerID != ownerID {
			logutil.GetLogger(ctx).Warn("dropped candidate with foreign owner",
				zap.Int64("owner_id", ownerID),
				zap.Int64("candidate_owner_id", cand.Meta.OwnerID),
			)
			continue
		}
		filtered = append(filtered, cand)
	}
	return filtered, nil
}

// Documents lists the owner's ingest audit records, newest first.
func (s *MemoryService) Documents(ctx context.Context, ownerID int64) ([]model.Document, error) {
	if s.documents == nil {
		return []model.Document{}, nil
	}
	return s.documents.ListByUser(ctx, ownerID)
}

type HealthStatus struct {
	StorageAvailable bool   `json:"storage_available"`
	EmbeddingBackend string `json:"embedding_backend"`
}

func (s *MemoryService) Health() HealthStatus {
	return HealthStatus{
		StorageAvailable: s.index != nil,
		EmbeddingBackend: s.embedder.ActiveBackend(),
	}
}

func (s *MemoryService) keepOriginal(ctx context.Context, docID, filename string, data []byte, logger *zap.Logger) string {
	if s.files == nil {
		return ""
	}
	key := docID + strings.ToLower(filepath.Ext(filename))
	if err := s.files.Save(ctx, key, nopReadSeekCloser{bytes.NewReader(data)}, int64(len(data))); err != nil {
		logger.Warn("failed to keep original upload", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }
