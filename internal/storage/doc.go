// Package storage provides persistent SQLite-backed storage for the document
// corpus: documents, their chunks, and the embedding vectors attached to
// those chunks.
//
// The package exposes a Storage interface with a SQLite implementation that
// supports two build modes, full CRUD for documents and chunks, vector and
// full-text search, and transactions.
//
// # Build Modes
//
// The package compiles in one of two modes selected by build tags:
//
// CGO mode (recommended for large corpora):
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5" ./...
//
// Uses github.com/mattn/go-sqlite3 with the sqlite-vec extension for
// SQL-level cosine distance. Vector search runs inside SQLite.
//
// Pure Go mode (default):
//
//	CGO_ENABLED=0 go build ./...
//
// Uses modernc.org/sqlite with no C dependencies. Vector search falls back
// to scanning embeddings and computing cosine similarity in Go, which is
// fine for corpora in the tens of thousands of chunks.
//
// The active mode is visible through the DriverName, VectorExtensionAvailable,
// and BuildMode constants.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("corpus.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	doc := &types.Document{
//		Source:      "guides/install.md",
//		Title:       "Installation Guide",
//		ContentHash: sha256.Sum256(content),
//		SizeBytes:   int64(len(content)),
//	}
//	if err := store.UpsertDocument(ctx, doc); err != nil {
//		log.Fatal(err)
//	}
//
// Documents are keyed by source: upserting the same source again updates the
// existing row in place and keeps its id.
//
// # Chunk Deduplication
//
// Chunks carry a SHA-256 hash of their content, and the hash is unique
// across the whole corpus. InsertChunk reports whether the content was
// already stored:
//
//	existed, err := store.InsertChunk(ctx, chunk)
//	if err != nil {
//		return err
//	}
//	if existed {
//		// identical text is already embedded; skip the provider call
//	}
//
// This is what makes re-ingesting an unchanged document cheap: every chunk
// hash hits an existing row and no embedding work happens.
//
// # Search
//
// Two search paths are available. SearchVector ranks chunks by cosine
// similarity against a query vector:
//
//	hits, err := store.SearchVector(ctx, queryVector, 12)
//
// SearchText runs a BM25 full-text query over chunk content via FTS5:
//
//	hits, err := store.SearchText(ctx, "install prerequisites", 12)
//
// Both return scores where higher is better. Use ListAll or GetCorpusEntry
// to hydrate chunk ids into content with their source attribution.
//
// # Transactions
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback()
//
//	for _, chunk := range chunks {
//		if _, err := tx.InsertChunk(ctx, chunk); err != nil {
//			return err
//		}
//	}
//	return tx.Commit()
//
// A transaction exposes the full Storage interface. Nested transactions are
// not supported.
//
// # Error Handling
//
// Lookups for missing rows return ErrNotFound, which callers should test
// with errors.Is:
//
//	doc, err := store.GetDocument(ctx, source)
//	if errors.Is(err, storage.ErrNotFound) {
//		// first ingest of this source
//	}
//
// # Schema
//
// Migrations are applied automatically on open and tracked by semantic
// version in a schema_version table. The schema has three core tables,
// documents, chunks, and embeddings, plus a chunks_fts FTS5 index that is
// kept in sync with chunk content by triggers.
package storage
