package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ragware/docrag-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// marshalMeta encodes chunk metadata as JSON, or NULL when empty
func marshalMeta(meta map[string]string) (interface{}, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chunk meta: %w", err)
	}
	return string(data), nil
}

// unmarshalMeta decodes chunk metadata from its JSON column
func unmarshalMeta(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode chunk meta: %w", err)
	}
	return meta, nil
}

// Document operations

// upsertDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	query := `
		INSERT INTO documents (source, title, content_hash, size_bytes, chunk_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			title = excluded.title,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			chunk_count = excluded.chunk_count,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.Source, doc.Title, doc.ContentHash[:],
		doc.SizeBytes, doc.ChunkCount, now, now).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *types.Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, source string) (*types.Document, error) {
	query := `
		SELECT id, source, title, content_hash, size_bytes, chunk_count, created_at, updated_at
		FROM documents
		WHERE source = ?
	`
	return scanDocument(q.QueryRowContext(ctx, query, source))
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, source string) (*types.Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), source)
}

// getDocumentByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDocumentByIDWithQuerier(ctx context.Context, q querier, documentID int64) (*types.Document, error) {
	query := `
		SELECT id, source, title, content_hash, size_bytes, chunk_count, created_at, updated_at
		FROM documents
		WHERE id = ?
	`
	return scanDocument(q.QueryRowContext(ctx, query, documentID))
}

func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, documentID int64) (*types.Document, error) {
	return s.getDocumentByIDWithQuerier(ctx, s.querier(), documentID)
}

// scanDocument scans a single document row
func scanDocument(row *sql.Row) (*types.Document, error) {
	var doc types.Document
	var title sql.NullString
	var hash []byte
	err := row.Scan(
		&doc.ID, &doc.Source, &title, &hash,
		&doc.SizeBytes, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(doc.ContentHash[:], hash)
	if title.Valid {
		doc.Title = title.String
	}
	return &doc, nil
}

// listDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier) ([]*types.Document, error) {
	query := `
		SELECT id, source, title, content_hash, size_bytes, chunk_count, created_at, updated_at
		FROM documents
		ORDER BY source
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*types.Document, 0)
	for rows.Next() {
		var doc types.Document
		var title sql.NullString
		var hash []byte

		err := rows.Scan(
			&doc.ID, &doc.Source, &title, &hash,
			&doc.SizeBytes, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		copy(doc.ContentHash[:], hash)
		if title.Valid {
			doc.Title = title.String
		}

		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier())
}

// deleteDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	query := `DELETE FROM documents WHERE id = ?`
	_, err := q.ExecContext(ctx, query, documentID)
	return err
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier.
// Returns existed=true when a chunk with the same content hash is already
// stored; the caller must then skip embedding work for it.
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *types.Chunk) (bool, error) {
	meta, err := marshalMeta(chunk.Meta)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO chunks (document_id, seq, content, content_hash, token_estimate, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
		RETURNING id, created_at
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		chunk.DocumentID, chunk.Seq, chunk.Content, chunk.ContentHash[:],
		chunk.TokenEstimate, meta, now,
	).Scan(&chunk.ID, &chunk.CreatedAt)

	if err == sql.ErrNoRows {
		// Conflict: the same content is already stored. Resolve its id so
		// the caller can reference the existing chunk.
		lookup := `SELECT id, created_at FROM chunks WHERE content_hash = ?`
		if err := q.QueryRowContext(ctx, lookup, chunk.ContentHash[:]).Scan(&chunk.ID, &chunk.CreatedAt); err != nil {
			return false, fmt.Errorf("failed to resolve existing chunk: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert chunk: %w", err)
	}

	return false, nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *types.Chunk) (bool, error) {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*types.Chunk, error) {
	query := `
		SELECT id, document_id, seq, content, content_hash, token_estimate, meta, created_at
		FROM chunks
		WHERE id = ?
	`
	return scanChunk(q.QueryRowContext(ctx, query, chunkID))
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// getChunkByHashWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkByHashWithQuerier(ctx context.Context, q querier, contentHash [32]byte) (*types.Chunk, error) {
	query := `
		SELECT id, document_id, seq, content, content_hash, token_estimate, meta, created_at
		FROM chunks
		WHERE content_hash = ?
	`
	return scanChunk(q.QueryRowContext(ctx, query, contentHash[:]))
}

func (s *SQLiteStorage) GetChunkByHash(ctx context.Context, contentHash [32]byte) (*types.Chunk, error) {
	return s.getChunkByHashWithQuerier(ctx, s.querier(), contentHash)
}

// scanChunk scans a single chunk row
func scanChunk(row *sql.Row) (*types.Chunk, error) {
	var chunk types.Chunk
	var hash []byte
	var meta sql.NullString

	err := row.Scan(
		&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Content, &hash,
		&chunk.TokenEstimate, &meta, &chunk.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	copy(chunk.ContentHash[:], hash)
	chunk.Meta, err = unmarshalMeta(meta)
	if err != nil {
		return nil, err
	}

	return &chunk, nil
}

// listChunksByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*types.Chunk, error) {
	query := `
		SELECT id, document_id, seq, content, content_hash, token_estimate, meta, created_at
		FROM chunks
		WHERE document_id = ?
		ORDER BY seq
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*types.Chunk, 0)
	for rows.Next() {
		var chunk types.Chunk
		var hash []byte
		var meta sql.NullString

		err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Content, &hash,
			&chunk.TokenEstimate, &meta, &chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		copy(chunk.ContentHash[:], hash)
		chunk.Meta, err = unmarshalMeta(meta)
		if err != nil {
			return nil, err
		}

		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// deleteChunksByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	query := `DELETE FROM chunks WHERE document_id = ?`
	_, err := q.ExecContext(ctx, query, documentID)
	return err
}

func (s *SQLiteStorage) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return s.deleteChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Embedding operations

// upsertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	if embedding.ID == 0 {
		id, err := result.LastInsertId()
		if err == nil {
			embedding.ID = id
		}
	}

	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

// getEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &embedding.Vector,
		&embedding.Dimension, &embedding.Provider, &embedding.Model,
		&embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// deleteEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) error {
	query := `DELETE FROM embeddings WHERE chunk_id = ?`
	_, err := q.ExecContext(ctx, query, chunkID)
	return err
}

func (s *SQLiteStorage) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return s.deleteEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// Corpus reads

// listAllWithQuerier is the internal implementation that uses a querier.
// A single statement joins chunks to their embeddings so the scan sees a
// consistent snapshot: a chunk whose embedding has not landed yet is simply
// absent from the result.
func (s *SQLiteStorage) listAllWithQuerier(ctx context.Context, q querier) ([]types.CorpusEntry, error) {
	query := `
		SELECT c.id, c.content, c.meta, e.vector, d.source
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN documents d ON c.document_id = d.id
		ORDER BY c.id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]types.CorpusEntry, 0)
	for rows.Next() {
		var entry types.CorpusEntry
		var meta sql.NullString
		var vectorBlob []byte

		err := rows.Scan(&entry.ID, &entry.Content, &meta, &vectorBlob, &entry.Source)
		if err != nil {
			return nil, err
		}

		entry.Vector = deserializeVector(vectorBlob)
		entry.Meta, err = unmarshalMeta(meta)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) ListAll(ctx context.Context) ([]types.CorpusEntry, error) {
	return s.listAllWithQuerier(ctx, s.querier())
}

// getCorpusEntryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getCorpusEntryWithQuerier(ctx context.Context, q querier, chunkID int64) (*types.CorpusEntry, error) {
	query := `
		SELECT c.id, c.content, c.meta, e.vector, d.source
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN documents d ON c.document_id = d.id
		WHERE c.id = ?
	`
	var entry types.CorpusEntry
	var meta sql.NullString
	var vectorBlob []byte

	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&entry.ID, &entry.Content, &meta, &vectorBlob, &entry.Source,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.Vector = deserializeVector(vectorBlob)
	entry.Meta, err = unmarshalMeta(meta)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *SQLiteStorage) GetCorpusEntry(ctx context.Context, chunkID int64) (*types.CorpusEntry, error) {
	return s.getCorpusEntryWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, queryVector []float32, limit int) ([]types.VectorHit, error) {
	// Implementation lives in vector_ops.go
	return searchVector(ctx, s.querier(), queryVector, limit)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, query string, limit int) ([]TextHit, error) {
	// Implementation lives in vector_ops.go
	return searchText(ctx, s.querier(), query, limit)
}

// Maintenance operations

// statusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) statusWithQuerier(ctx context.Context, q querier) (*CorpusStatus, error) {
	status := &CorpusStatus{}

	// Count documents
	var docCount int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&docCount)
	if err != nil {
		return nil, err
	}
	status.DocumentsCount = docCount

	// Count chunks
	var chunkCount int
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&chunkCount)
	if err != nil {
		return nil, err
	}
	status.ChunksCount = chunkCount

	// Count embeddings
	var embeddingCount int
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&embeddingCount)
	if err != nil {
		return nil, err
	}
	status.EmbeddingsCount = embeddingCount

	// Most recent ingest
	var lastIngested sql.NullTime
	err = q.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM documents").Scan(&lastIngested)
	if err == nil && lastIngested.Valid {
		status.LastIngestedAt = lastIngested.Time
	}

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.DBSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	// Check FTS table presence
	var ftsName string
	ftsErr := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='chunks_fts'").Scan(&ftsName)

	status.Health = HealthStatus{
		DatabaseAccessible:  true,
		EmbeddingsAvailable: embeddingCount > 0,
		FTSIndexReady:       ftsErr == nil,
	}

	return status, nil
}

func (s *SQLiteStorage) Status(ctx context.Context) (*CorpusStatus, error) {
	return s.statusWithQuerier(ctx, s.querier())
}

// clearWithQuerier deletes all corpus data. It intentionally does not reset
// sqlite_sequence, so chunk ids keep growing and are never reused.
func (s *SQLiteStorage) clearWithQuerier(ctx context.Context, q querier) error {
	for _, stmt := range []string{
		"DELETE FROM embeddings",
		"DELETE FROM chunks",
		"DELETE FROM documents",
	} {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear corpus: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) Clear(ctx context.Context) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := s.clearWithQuerier(ctx, tx.(*sqliteTx).querier()); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Transaction implementations

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *types.Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, source string) (*types.Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) GetDocumentByID(ctx context.Context, documentID int64) (*types.Document, error) {
	return t.storage.getDocumentByIDWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *types.Chunk) (bool, error) {
	return t.storage.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) GetChunkByHash(ctx context.Context, contentHash [32]byte) (*types.Chunk, error) {
	return t.storage.getChunkByHashWithQuerier(ctx, t.querier(), contentHash)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error) {
	return t.storage.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.storage.getEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return t.storage.deleteEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListAll(ctx context.Context) ([]types.CorpusEntry, error) {
	return t.storage.listAllWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) GetCorpusEntry(ctx context.Context, chunkID int64) (*types.CorpusEntry, error) {
	return t.storage.getCorpusEntryWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, vector []float32, limit int) ([]types.VectorHit, error) {
	return searchVector(ctx, t.querier(), vector, limit)
}

func (t *sqliteTx) SearchText(ctx context.Context, query string, limit int) ([]TextHit, error) {
	return searchText(ctx, t.querier(), query, limit)
}

func (t *sqliteTx) Status(ctx context.Context) (*CorpusStatus, error) {
	return t.storage.statusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Clear(ctx context.Context) error {
	return t.storage.clearWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
