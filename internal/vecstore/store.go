// Package vecstore persists chunk embeddings in sqlite and answers
// owner-scoped nearest-neighbor queries with a brute-force cosine scan.
// Per-user corpora are small (capped chunks per document), so a scan
// over one owner's rows beats maintaining an ANN structure.
package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/didi/gendry/builder"
	_ "modernc.org/sqlite"

	"github.com/mnemo-dev/mnemo/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	owner_id INTEGER NOT NULL,
	source TEXT NOT NULL,
	sequence_index INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_owner ON chunks(owner_id);
`

type Store struct {
	db *sql.DB
}

// Open roots the index at dir, creating it if needed. Callers treat an
// open failure as "index unavailable", not as fatal.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vector store dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "vectors.db"))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes one row per chunk. All four slices must be equal length;
// the write is transactional so a failed batch leaves nothing behind.
func (s *Store) Upsert(ctx context.Context, ids, texts []string, vectors [][]float32, metas []model.ChunkMeta) error {
	if len(ids) != len(texts) || len(ids) != len(vectors) || len(ids) != len(metas) {
		return fmt.Errorf("upsert: mismatched lengths ids=%d texts=%d vectors=%d metas=%d",
			len(ids), len(texts), len(vectors), len(metas))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for i := range ids {
		blob, err := json.Marshal(vectors[i])
		if err != nil {
			return err
		}
		data := map[string]interface{}{
			"id":             ids[i],
			"owner_id":       metas[i].OwnerID,
			"source":         metas[i].Source,
			"sequence_index": metas[i].SequenceIndex,
			"created_at":     metas[i].CreatedAt,
			"content":        texts[i],
			"embedding":      blob,
		}
		sqlStr, args, err := builder.BuildInsert("chunks", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr = strings.Replace(sqlStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query returns up to k candidates owned by ownerID, nearest first.
// Rows whose stored vector does not match the query dimension are
// skipped; distances across dimensions are undefined.
func (s *Store) Query(ctx context.Context, vector []float32, ownerID int64, k int) ([]model.Candidate, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{"owner_id": ownerID}
	sqlStr, args, err := builder.BuildSelect("chunks",
		where,
		[]string{"content", "owner_id", "source", "sequence_index", "created_at", "embedding"})
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var candidates []model.Candidate
	for rows.Next() {
		var cand model.Candidate
		var blob []byte
		if err := rows.Scan(&cand.Text, &cand.Meta.OwnerID, &cand.Meta.Source,
			&cand.Meta.SequenceIndex, &cand.Meta.CreatedAt, &blob); err != nil {
			return nil, err
		}
		var emb []float32
		if err := json.Unmarshal(blob, &emb); err != nil {
			return nil, err
		}
		if len(emb) != len(vector) {
			continue
		}
		cand.Distance = 1 - cosineSimilarity(vector, emb)
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// DeleteByOwner removes every chunk owned by ownerID, the bulk purge
// used when an account is wiped.
func (s *Store) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("chunks", map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
