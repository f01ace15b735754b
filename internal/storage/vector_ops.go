package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// searchVector performs vector similarity search using cosine similarity
func searchVector(ctx context.Context, q querier, queryVector []float32, limit int) ([]types.VectorHit, error) {
	if len(queryVector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}
	if limit <= 0 {
		return []types.VectorHit{}, nil
	}

	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, q, queryVector, limit)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, q, queryVector, limit)
}

// searchVectorOptimized uses the sqlite-vec extension for SQL-based vector similarity search
func searchVectorOptimized(ctx context.Context, q querier, queryVector []float32, limit int) ([]types.VectorHit, error) {
	// Serialize query vector for sqlite-vec
	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// convert to similarity so higher is better everywhere.
	// vec_distance_cosine raises an error on mismatched dimensions, so rows
	// embedded at a different dimension are filtered out first.
	query := `
		SELECT
			e.chunk_id,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM embeddings e
		WHERE e.dimension = ?
		ORDER BY similarity DESC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, queryVectorBlob, len(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]types.VectorHit, 0, limit)
	for rows.Next() {
		var hit types.VectorHit
		if err := rows.Scan(&hit.ChunkID, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// searchVectorFallback performs vector search using Go-based cosine similarity computation.
// This is used when the sqlite-vec extension is not available (purego builds).
func searchVectorFallback(ctx context.Context, q querier, queryVector []float32, limit int) ([]types.VectorHit, error) {
	query := `SELECT chunk_id, vector FROM embeddings`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Compute similarity scores and rank in Go
	candidates, err := computeSimilarityScores(rows, queryVector)
	if err != nil {
		return nil, err
	}

	// Sort by similarity (descending)
	sortCandidates(candidates)

	if limit > len(candidates) {
		limit = len(candidates)
	}
	hits := make([]types.VectorHit, limit)
	for i := 0; i < limit; i++ {
		hits[i] = types.VectorHit{ChunkID: candidates[i].chunkID, Score: candidates[i].score}
	}
	return hits, nil
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32) ([]candidate, error) {
	candidates := make([]candidate, 0, 1000)

	for rows.Next() {
		var chunkID int64
		var vectorBlob []byte
		if err := rows.Scan(&chunkID, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		similarity := cosineSimilarity(queryVector, vector)
		candidates = append(candidates, candidate{chunkID: chunkID, score: similarity})
	}

	return candidates, rows.Err()
}

// candidate represents a chunk with its similarity score
type candidate struct {
	chunkID int64
	score   float64
}

// sortCandidates sorts candidates by score in descending order. Equal scores
// fall back to chunk id order so results are deterministic across runs.
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].chunkID < candidates[j].chunkID
	})
}

// searchText performs BM25 full-text search using FTS5
func searchText(ctx context.Context, q querier, query string, limit int) ([]TextHit, error) {
	// Sanitize query for FTS5
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		return []TextHit{}, nil
	}

	// chunks_fts is an external-content table, so its rowid is the chunk id.
	// bm25() reports lower-is-better, so ascending order puts the best match first.
	sqlQuery := `
		SELECT
			chunks_fts.rowid as chunk_id,
			bm25(chunks_fts) as score
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, sanitized, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]TextHit, 0, limit)
	for rows.Next() {
		var hit TextHit
		if err := rows.Scan(&hit.ChunkID, &hit.Score); err != nil {
			return nil, err
		}

		// BM25 scores are negative, with larger magnitude meaning a better
		// match. Map into (0, 1) so higher is better, like the vector path.
		magnitude := math.Abs(hit.Score)
		hit.Score = magnitude / (magnitude + 50.0)

		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// sanitizeFTSQuery rewrites a user query into a safe FTS5 match expression.
// FTS5 has its own query syntax; every token is wrapped as a quoted phrase so
// operators and punctuation in user input cannot alter the query shape. Tokens
// are joined with OR to give keyword-search recall rather than requiring
// every term to match.
func sanitizeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	phrases := make([]string, 0, len(fields))
	for _, field := range fields {
		// Double quotes are the only escape FTS5 honors inside a phrase
		escaped := strings.ReplaceAll(field, `"`, `""`)
		phrases = append(phrases, `"`+escaped+`"`)
	}
	return strings.Join(phrases, " OR ")
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SerializeVector converts a float32 vector to the blob form stored in the
// embeddings table.
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector converts a stored vector blob back to a float32 slice.
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}
