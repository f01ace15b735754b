// Package mcp implements the Model Context Protocol (MCP) server for DocRAG.
//
// The MCP server exposes six tools to AI assistants (Claude Code, Codex CLI):
//   - ingest_text: Add raw text to the document corpus
//   - ingest_file: Add a document file (.txt, .text, .md, .pdf) to the corpus
//   - ask: Answer a question grounded in the most relevant chunks
//   - search: Return ranked chunks without generating an answer
//   - get_status: Check corpus statistics and health
//   - clear_corpus: Delete everything that was ingested
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: ingest_text
//
// Ingest pasted text so it becomes retrievable:
//
//	Request:
//	{
//	  "name": "ingest_text",
//	  "arguments": {
//	    "text": "The deploy pipeline promotes builds from staging...",
//	    "source": "wiki/deploys",
//	    "chunk_size": 800,
//	    "chunk_overlap": 120
//	  }
//	}
//
//	Response:
//	{
//	  "document_id": 3,
//	  "source": "wiki/deploys",
//	  "chunks_added": 12,
//	  "chunks_skipped": 0,
//	  "unchanged": false,
//	  "duration_ms": 184
//	}
//
// Re-ingesting the same source with identical content is a no-op
// (unchanged: true). Changed content replaces the document's chunks.
// When source is omitted a stable inline identifier is derived from the
// text itself.
//
// # Tool: ingest_file
//
// Ingest a document file by absolute path:
//
//	Request:
//	{
//	  "name": "ingest_file",
//	  "arguments": {
//	    "path": "/home/user/docs/handbook.pdf"
//	  }
//	}
//
// The response shape matches ingest_text. The file's path is its source,
// so re-ingesting a modified file updates it in place.
//
// # Tool: ask
//
// Answer a question using retrieved chunks as grounding context:
//
//	Request:
//	{
//	  "name": "ask",
//	  "arguments": {
//	    "question": "How are builds promoted to production?",
//	    "k": 4
//	  }
//	}
//
//	Response:
//	{
//	  "answer": "Builds are promoted from staging after... [#1]",
//	  "model": "llama3.2",
//	  "mode": "brute-force",
//	  "sources": [
//	    {
//	      "ref": "#1",
//	      "chunk_id": 17,
//	      "source": "wiki/deploys",
//	      "score": 0.8731
//	    }
//	  ]
//	}
//
// k is clamped to [1, 8]. When nothing has been ingested the answer is a
// fixed notice and sources is empty; no model call is made.
//
// # Tool: search
//
// Return ranked chunks directly:
//
//	Request:
//	{
//	  "name": "search",
//	  "arguments": {
//	    "query": "staging promotion",
//	    "k": 4,
//	    "mode": "semantic"
//	  }
//	}
//
//	Response:
//	{
//	  "mode": "semantic",
//	  "results": [
//	    {
//	      "ref": "#1",
//	      "chunk_id": 17,
//	      "source": "wiki/deploys",
//	      "score": 0.8731,
//	      "content": "The deploy pipeline promotes builds..."
//	    }
//	  ],
//	  "duration_ms": 9
//	}
//
// mode "semantic" ranks by vector similarity; mode "keyword" uses the
// SQLite FTS5 index instead and never touches the embedder.
//
// # Tool: get_status
//
// Check corpus statistics and configuration:
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {}
//	}
//
//	Response:
//	{
//	  "corpus": {
//	    "documents": 4,
//	    "chunks": 212,
//	    "embeddings": 212,
//	    "db_size_mb": "1.24",
//	    "last_ingested_at": "2025-11-02T09:14:05Z"
//	  },
//	  "embedding": {"provider": "local", "model": "local-embeddings", "dimension": 384},
//	  "generator": {"model": "llama3.2"},
//	  "retrieval": {"mode": "brute-force", "default_k": 4},
//	  "health": {
//	    "database_accessible": true,
//	    "embeddings_available": true,
//	    "fts_index_ready": true
//	  }
//	}
//
// # Tool: clear_corpus
//
// Delete every ingested document, chunk, and embedding:
//
//	Request:
//	{
//	  "name": "clear_corpus",
//	  "arguments": {"confirm": true}
//	}
//
//	Response:
//	{"cleared": true}
//
// The call is rejected unless confirm is true.
//
// # MCP Client Configuration
//
// Configure in Claude Code's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "docrag": {
//	      "command": "/usr/local/bin/docrag",
//	      "env": {
//	        "DOCRAG_LLM_HOST": "http://localhost:11434/v1",
//	        "DOCRAG_LLM_MODEL": "llama3.2"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid path",
//	    "data": {
//	      "param": "path",
//	      "reason": "path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, embedder, generation)
//   - -32001: Unsupported file type
//   - -32002: Ingestion already in progress
//   - -32004: Empty query or question
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("MCP server started")
package mcp
