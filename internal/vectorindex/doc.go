// Package vectorindex mirrors chunk embeddings into a Qdrant collection and
// serves approximate nearest-neighbor queries from it.
//
// SQLite remains the source of truth for chunk content; the index stores
// only vectors, chunk ids, and source attribution. Queries return chunk ids
// that the caller hydrates back through storage, so a stale or partially
// mirrored index degrades recall but never fabricates content.
//
// # Usage
//
//	ix, err := vectorindex.New("localhost:6334", vectorindex.DefaultCollection)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ix.Close()
//
//	if err := ix.EnsureCollection(ctx, 768); err != nil {
//		log.Fatal(err)
//	}
//
//	err = ix.Upsert(ctx, []vectorindex.Point{
//		{ChunkID: chunk.ID, Vector: vec, Source: doc.Source},
//	})
//
//	hits, err := ix.Query(ctx, queryVector, 12)
//
// Point ids are derived deterministically from chunk ids, so re-ingesting a
// document overwrites its points instead of accumulating duplicates.
//
// The index is optional: it is only wired in when DOCRAG_QDRANT_ADDR is set.
package vectorindex
