// Package chunker divides document text into overlapping fixed-size windows
// for embedding and retrieval.
//
// The chunker slides a window of a configured width across the text so that
// sentences falling on a window boundary survive intact in at least one chunk.
//
// # Basic Usage
//
//	c := chunker.New() // 800-character windows, 120-character overlap
//	windows := c.Split(text)
//
//	for _, w := range windows {
//	    fmt.Printf("chunk: %d chars\n", len(w))
//	}
//
// # Window Geometry
//
// Two parameters control chunking:
//   - size: window width in characters (default 800)
//   - overlap: characters shared between consecutive windows (default 120)
//
// The cursor starts at 0 and advances by size-overlap after each window.
// Advancement is clamped to at least one character per step, so chunking
// terminates even for pathological overlaps (overlap >= size). Sizes count
// runes, so multi-byte characters are never split across windows.
//
// # Trimming
//
// Each window is whitespace-trimmed before it is kept. Windows that trim to
// nothing (runs of blank lines, padding) are dropped, but the cursor still
// advances past them. Empty or whitespace-only input yields an empty
// sequence, not an error.
//
// # Storage-Ready Chunks
//
// ChunkText wraps windows as domain chunks with sequence numbers, SHA-256
// content hashes, and token estimates filled in:
//
//	chunks := c.ChunkText(text, documentID, map[string]string{"title": title})
//	for _, chunk := range chunks {
//	    if err := chunk.Validate(); err != nil {
//	        log.Printf("invalid chunk: %v", err)
//	        continue
//	    }
//	    // ready for embedding
//	}
//
// Content hashes enable ingestion-time deduplication: a chunk whose hash is
// already stored is skipped without re-embedding.
package chunker
