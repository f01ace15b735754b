// Package ingest coordinates the write path of the corpus:
// split -> dedup -> embed -> store -> mirror.
//
// A document's text is split into overlapping chunks, each chunk is keyed by
// a SHA-256 content hash, and only hashes the corpus has never embedded go
// to the embedding provider. Vectors land in SQLite inside one transaction,
// then get mirrored into the optional Qdrant index.
//
//	pipe := ingest.New(store, provider, mirror)
//	result, err := pipe.IngestText(ctx, "notes/api.md", "API Notes", text, nil)
//	if err != nil {
//		return err
//	}
//	log.Printf("added %d chunks, skipped %d", result.ChunksAdded, result.ChunksSkipped)
//
// Re-ingesting a source whose content hash is unchanged does no work at all
// and reports Unchanged. A changed document first drops its old chunks, so
// stale text can never be retrieved.
//
// Ingests are single-flight: a second caller gets ErrBusy immediately rather
// than waiting, and the MCP layer surfaces that as a retryable condition.
//
// Embedding failures abort the whole ingest. A partially embedded document
// would silently miss from retrieval results, which is worse than a loud
// failure.
package ingest
