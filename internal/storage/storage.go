package storage

import (
	"context"
	"time"

	"github.com/ragware/docrag-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying the document corpus
type Storage interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, source string) (*types.Document, error)
	GetDocumentByID(ctx context.Context, documentID int64) (*types.Document, error)
	ListDocuments(ctx context.Context) ([]*types.Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *types.Chunk) (existed bool, err error)
	GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error)
	GetChunkByHash(ctx context.Context, contentHash [32]byte) (*types.Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, chunkID int64) error

	// Corpus reads for retrieval
	ListAll(ctx context.Context) ([]types.CorpusEntry, error)
	GetCorpusEntry(ctx context.Context, chunkID int64) (*types.CorpusEntry, error)
	SearchVector(ctx context.Context, vector []float32, limit int) ([]types.VectorHit, error)
	SearchText(ctx context.Context, query string, limit int) ([]TextHit, error)

	// Maintenance operations
	Status(ctx context.Context) (*CorpusStatus, error)
	Clear(ctx context.Context) error

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Embedding represents a stored vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// TextHit represents a result from full-text search
type TextHit struct {
	ChunkID int64
	Score   float64 // Normalized BM25 score, higher is better
}

// CorpusStatus contains statistics about the stored corpus
type CorpusStatus struct {
	DocumentsCount  int
	ChunksCount     int
	EmbeddingsCount int
	DBSizeMB        float64
	LastIngestedAt  time.Time
	Health          HealthStatus
}

// HealthStatus represents the health of the corpus database
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexReady       bool
}
