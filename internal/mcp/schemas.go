package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestTextTool returns the tool definition for ingest_text
func ingestTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_text",
		Description: "Ingest raw text into the document corpus so it becomes retrievable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to ingest (pasted notes, documentation, article content)",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier for the document (file path, URL, title). Re-ingesting the same source updates it. Defaults to a hash-derived inline id",
				},
				"chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Characters per chunk",
					"default":     800,
					"minimum":     1,
				},
				"chunk_overlap": map[string]interface{}{
					"type":        "integer",
					"description": "Characters shared between consecutive chunks",
					"default":     120,
					"minimum":     1,
				},
			},
			Required: []string{"text"},
		},
	}
}

// ingestFileTool returns the tool definition for ingest_file
func ingestFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_file",
		Description: "Ingest a document file (.txt, .text, .md, .pdf) into the corpus",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the document file",
				},
				"chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Characters per chunk",
					"default":     800,
					"minimum":     1,
				},
				"chunk_overlap": map[string]interface{}{
					"type":        "integer",
					"description": "Characters shared between consecutive chunks",
					"default":     120,
					"minimum":     1,
				},
			},
			Required: []string{"path"},
		},
	}
}

// askTool returns the tool definition for ask
func askTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the most relevant ingested chunks as grounding context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question about the ingested documents",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "How many chunks to retrieve as context (1-8)",
					"default":     4,
					"minimum":     1,
					"maximum":     8,
				},
			},
			Required: []string{"question"},
		},
	}
}

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search the ingested corpus and return ranked chunks without generating an answer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-8)",
					"default":     4,
					"minimum":     1,
					"maximum":     8,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: semantic (vector similarity) or keyword (BM25 full-text)",
					"enum":        []string{"semantic", "keyword"},
					"default":     "semantic",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report corpus statistics, configured providers, and database health",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearCorpusTool returns the tool definition for clear_corpus
func clearCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_corpus",
		Description: "Delete every ingested document, chunk, and embedding. Irreversible",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true to actually clear the corpus",
				},
			},
			Required: []string{"confirm"},
		},
	}
}
