// Package types provides shared type definitions for the DocRAG MCP server.
//
// This package defines domain types used across multiple components of DocRAG,
// including documents, chunks, corpus entries, and scored retrieval results.
//
// # Core Types
//
// Document represents one ingested source (a file, a pasted string, an upload):
//
//	doc := &types.Document{
//	    Source:    "guides/wonders.md",
//	    Title:     "Wonders of the World",
//	    SizeBytes: int64(len(text)),
//	}
//
// Chunk represents one overlapping window of document text, the unit of
// embedding and retrieval:
//
//	chunk := &types.Chunk{
//	    DocumentID: doc.ID,
//	    Seq:        0,
//	    Content:    window,
//	}
//	chunk.ComputeContentHash()
//
// # Retrieval Types
//
// CorpusEntry is a chunk joined with its embedding, the record a full corpus
// scan yields. VectorHit is an unhydrated candidate from a vector index.
// ScoredChunk is the final ranked result carrying a 1-based display ref:
//
//	result := types.ScoredChunk{
//	    Ref:     "#1",
//	    ChunkID: 42,
//	    Score:   0.8731,
//	    Content: "Stockholm is the capital of Sweden...",
//	}
//
// Plain cosine scores fall in [-1, 1]; keyword boosting can add up to a
// configured cap on top, so boosted scores may exceed 1.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
