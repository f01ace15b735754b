package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ragware/docrag-mcp/internal/chunker"
	"github.com/ragware/docrag-mcp/internal/embedder"
	"github.com/ragware/docrag-mcp/internal/loader"
	"github.com/ragware/docrag-mcp/internal/storage"
	"github.com/ragware/docrag-mcp/internal/vectorindex"
	"github.com/ragware/docrag-mcp/pkg/types"
)

var (
	// ErrBusy is returned when another ingest is already running
	ErrBusy = errors.New("ingest already in progress")
	// ErrNoContent is returned when a document yields no chunks
	ErrNoContent = errors.New("document has no content")
)

// Mirror receives embedded chunks for approximate-nearest-neighbor serving.
// The SQLite corpus stays authoritative; a mirror that falls behind degrades
// recall but never correctness.
type Mirror interface {
	Upsert(ctx context.Context, points []vectorindex.Point) error
	Delete(ctx context.Context, chunkIDs []int64) error
	Clear(ctx context.Context) error
}

// Pipeline coordinates ingestion: split -> dedup -> embed -> store
type Pipeline struct {
	store    storage.Storage
	provider embedder.Embedder
	mirror   Mirror // nil when no vector index is configured

	lock Lock
}

// Config contains per-ingest configuration
type Config struct {
	ChunkSize    int // characters per chunk (default 800)
	ChunkOverlap int // characters shared between neighbors (default 120)
	Workers      int // concurrent embedding batches (default: runtime.NumCPU())
	BatchSize    int // texts per embedding request (default: embedder.DefaultBatchSize)
}

// normalize fills zero fields with defaults, so Config{} is usable as-is
func (c *Config) normalize() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunker.DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = chunker.DefaultOverlap
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = embedder.DefaultBatchSize
	}
	if c.BatchSize > embedder.MaxBatchSize {
		c.BatchSize = embedder.MaxBatchSize
	}
}

// Result describes what one ingest did
type Result struct {
	DocumentID    int64
	Source        string
	ChunksAdded   int
	ChunksSkipped int
	Unchanged     bool // document content hash matched, nothing was re-embedded
	Duration      time.Duration
}

// New creates a Pipeline. mirror may be nil
func New(store storage.Storage, provider embedder.Embedder, mirror Mirror) *Pipeline {
	return &Pipeline{
		store:    store,
		provider: provider,
		mirror:   mirror,
	}
}

// InlineSource derives a stable source identifier for raw text ingests, so
// repeated ingests of the same text update one document instead of piling up
func InlineSource(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "inline:" + hex.EncodeToString(sum[:6])
}

// IngestText splits, embeds, and stores one document. Only one ingest runs
// at a time; concurrent calls fail fast with ErrBusy
func (p *Pipeline) IngestText(ctx context.Context, source, title, text string, cfg *Config) (*Result, error) {
	if !p.lock.TryAcquire() {
		return nil, ErrBusy
	}
	defer p.lock.Release()

	if cfg == nil {
		cfg = &Config{}
	}
	cfg.normalize()

	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}
	if source == "" {
		source = InlineSource(text)
	}

	start := time.Now()
	contentHash := sha256.Sum256([]byte(text))

	existing, err := p.store.GetDocument(ctx, source)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	// Unchanged content: no splitting, no embedding, no writes
	if existing != nil && existing.ContentHash == contentHash {
		return &Result{
			DocumentID:    existing.ID,
			Source:        source,
			ChunksSkipped: existing.ChunkCount,
			Unchanged:     true,
			Duration:      time.Since(start),
		}, nil
	}

	split := chunker.NewWithWindow(cfg.ChunkSize, cfg.ChunkOverlap)
	pieces := split.Split(text)
	if len(pieces) == 0 {
		return nil, ErrNoContent
	}

	// Changed document: its previous chunks go away first
	if existing != nil {
		if err := p.dropDocumentChunks(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	doc := &types.Document{
		Source:      source,
		Title:       title,
		ContentHash: contentHash,
		SizeBytes:   int64(len(text)),
		ChunkCount:  len(pieces),
	}
	if err := p.store.UpsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	chunks := make([]*types.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &types.Chunk{
			DocumentID:    doc.ID,
			Seq:           i,
			Content:       piece,
			ContentHash:   chunker.ComputeChunkHash(piece),
			TokenEstimate: chunker.EstimateTokenCount(piece),
		}
	}

	toEmbed, reused, err := p.partitionByHash(ctx, chunks)
	if err != nil {
		return nil, err
	}

	vectors, err := p.embedChunks(ctx, toEmbed, cfg)
	if err != nil {
		return nil, err
	}

	added, collided, err := p.storeChunks(ctx, toEmbed, vectors)
	if err != nil {
		return nil, err
	}

	if err := p.mirrorChunks(ctx, source, toEmbed, vectors, reused); err != nil {
		return nil, err
	}

	return &Result{
		DocumentID:    doc.ID,
		Source:        source,
		ChunksAdded:   added,
		ChunksSkipped: len(reused) + collided,
		Duration:      time.Since(start),
	}, nil
}

// IngestFile loads a file and ingests its text. The cleaned path becomes the
// document source
func (p *Pipeline) IngestFile(ctx context.Context, path string, cfg *Config) (*Result, error) {
	text, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return p.IngestText(ctx, path, loader.TitleFromPath(path), text, cfg)
}

// Clear drops the whole corpus, index included
func (p *Pipeline) Clear(ctx context.Context) error {
	if !p.lock.TryAcquire() {
		return ErrBusy
	}
	defer p.lock.Release()

	if err := p.store.Clear(ctx); err != nil {
		return err
	}
	if p.mirror != nil {
		if err := p.mirror.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear vector index: %w", err)
		}
	}
	return nil
}

// reusedChunk is a chunk whose content is already stored and embedded
type reusedChunk struct {
	chunk  *types.Chunk
	vector []float32
}

// partitionByHash splits incoming chunks into those needing embedding work
// and those whose content hash already has a stored embedding. A stored
// chunk without an embedding (interrupted earlier ingest) is re-embedded.
func (p *Pipeline) partitionByHash(ctx context.Context, chunks []*types.Chunk) ([]*types.Chunk, []reusedChunk, error) {
	toEmbed := make([]*types.Chunk, 0, len(chunks))
	reused := make([]reusedChunk, 0)

	for _, chunk := range chunks {
		stored, err := p.store.GetChunkByHash(ctx, chunk.ContentHash)
		if errors.Is(err, storage.ErrNotFound) {
			toEmbed = append(toEmbed, chunk)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check chunk hash: %w", err)
		}

		emb, err := p.store.GetEmbedding(ctx, stored.ID)
		if errors.Is(err, storage.ErrNotFound) {
			chunk.ID = stored.ID
			toEmbed = append(toEmbed, chunk)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check chunk embedding: %w", err)
		}

		chunk.ID = stored.ID
		reused = append(reused, reusedChunk{
			chunk:  chunk,
			vector: storage.DeserializeVector(emb.Vector),
		})
	}
	return toEmbed, reused, nil
}

// embedChunks generates vectors for the given chunks, batching requests and
// running batches concurrently. The returned slice is index-aligned with
// chunks. Any embedding failure fails the whole ingest.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*types.Chunk, cfg *Config) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(chunks))
	semaphore := make(chan struct{}, cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < len(chunks); i += cfg.BatchSize {
		end := i + cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		offset, batch := i, chunks[i:end]

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			texts := make([]string, len(batch))
			for j, chunk := range batch {
				texts[j] = chunk.Content
			}

			resp, err := p.provider.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts})
			if err != nil {
				return fmt.Errorf("failed to embed chunks: %w", err)
			}
			if len(resp.Embeddings) != len(batch) {
				return fmt.Errorf("provider returned %d embeddings for %d chunks", len(resp.Embeddings), len(batch))
			}

			// Disjoint ranges, so no locking around the shared slice
			for j, emb := range resp.Embeddings {
				if emb == nil || len(emb.Vector) == 0 {
					return fmt.Errorf("provider returned an empty vector for chunk %d", offset+j)
				}
				vectors[offset+j] = emb.Vector
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// storeChunks writes chunks and their vectors in one transaction. It returns
// how many chunk rows were newly added and how many collided with content
// that landed since the hash check.
func (p *Pipeline) storeChunks(ctx context.Context, chunks []*types.Chunk, vectors [][]float32) (added, collided int, err error) {
	if len(chunks) == 0 {
		return 0, 0, nil
	}

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, chunk := range chunks {
		existed, err := tx.InsertChunk(ctx, chunk)
		if err != nil {
			return 0, 0, err
		}
		if existed {
			collided++
		} else {
			added++
		}

		err = tx.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunk.ID,
			Vector:    storage.SerializeVector(vectors[i]),
			Dimension: len(vectors[i]),
			Provider:  p.provider.Provider(),
			Model:     p.provider.Model(),
		})
		if err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return added, collided, nil
}

// mirrorChunks pushes every vector touched by this ingest into the index.
// Re-upserting a reused chunk is idempotent and heals a wiped index.
func (p *Pipeline) mirrorChunks(ctx context.Context, source string, embedded []*types.Chunk, vectors [][]float32, reused []reusedChunk) error {
	if p.mirror == nil {
		return nil
	}

	points := make([]vectorindex.Point, 0, len(embedded)+len(reused))
	for i, chunk := range embedded {
		points = append(points, vectorindex.Point{
			ChunkID: chunk.ID,
			Vector:  vectors[i],
			Source:  source,
		})
	}
	for _, r := range reused {
		points = append(points, vectorindex.Point{
			ChunkID: r.chunk.ID,
			Vector:  r.vector,
			Source:  source,
		})
	}

	if err := p.mirror.Upsert(ctx, points); err != nil {
		return fmt.Errorf("failed to mirror chunks: %w", err)
	}
	return nil
}

// dropDocumentChunks removes a document's chunks from storage and the index
func (p *Pipeline) dropDocumentChunks(ctx context.Context, documentID int64) error {
	old, err := p.store.ListChunksByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := p.store.DeleteChunksByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	if p.mirror == nil || len(old) == 0 {
		return nil
	}
	ids := make([]int64, len(old))
	for i, chunk := range old {
		ids[i] = chunk.ID
	}
	if err := p.mirror.Delete(ctx, ids); err != nil {
		return fmt.Errorf("failed to drop chunks from vector index: %w", err)
	}
	return nil
}
