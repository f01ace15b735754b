package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ragware/docrag-mcp/internal/ingest"
	"github.com/ragware/docrag-mcp/internal/loader"
	"github.com/ragware/docrag-mcp/internal/retriever"
	"github.com/ragware/docrag-mcp/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeUnsupportedFile = -32001 // File type cannot be ingested
	ErrorCodeIngestBusy      = -32002 // Another ingestion is already running
	ErrorCodeEmptyQuery      = -32004 // Query or question parameter is empty
)

// Bounds for the k parameter on ask and search
const (
	MinK = 1
	MaxK = 8
)

// handleIngestText handles the ingest_text tool invocation
func (s *Server) handleIngestText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or not a string",
		})
	}

	source := getStringDefault(args, "source", "")

	cfg, err := s.ingestConfig(args)
	if err != nil {
		return nil, err
	}

	// Run ingestion
	result, err := s.pipeline.IngestText(ctx, source, "", text, &cfg)
	if err != nil {
		return nil, ingestError(err)
	}
	s.retriever.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(ingestResponse(result))), nil
}

// handleIngestFile handles the ingest_file tool invocation
func (s *Server) handleIngestFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path := getStringDefault(args, "path", "")
	if err := validateFilePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	if !loader.IsSupported(path) {
		return nil, newMCPError(ErrorCodeUnsupportedFile, "unsupported file type", map[string]interface{}{
			"extension": filepath.Ext(path),
			"supported": loader.SupportedExtensions(),
		})
	}

	cfg, err := s.ingestConfig(args)
	if err != nil {
		return nil, err
	}

	// Run ingestion
	result, err := s.pipeline.IngestFile(ctx, path, &cfg)
	if err != nil {
		return nil, ingestError(err)
	}
	s.retriever.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(ingestResponse(result))), nil
}

// handleAsk handles the ask tool invocation
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	question, ok := args["question"].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	k := clampK(getIntDefault(args, "k", retriever.DefaultK))

	// Retrieve grounding context
	resp, err := s.retriever.Retrieve(ctx, retriever.Request{
		Query:    question,
		K:        k,
		UseCache: true,
	})
	if err != nil {
		return nil, retrieveError(err)
	}

	// Generate the answer from the retrieved context
	answer, err := s.generator.Answer(ctx, question, resp.Context)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "answer generation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	sources := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		sources = append(sources, map[string]interface{}{
			"ref":      r.Ref,
			"chunk_id": r.ChunkID,
			"source":   r.Source,
			"score":    r.Score,
		})
	}

	response := map[string]interface{}{
		"answer":  answer,
		"model":   s.generator.Model(),
		"mode":    string(resp.Mode),
		"sources": sources,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearch handles the search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	k := clampK(getIntDefault(args, "k", retriever.DefaultK))

	mode := getStringDefault(args, "mode", "semantic")
	switch mode {
	case "semantic":
		return s.semanticSearch(ctx, query, k)
	case "keyword":
		return s.keywordSearch(ctx, query, k)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"semantic", "keyword"},
		})
	}
}

func (s *Server) semanticSearch(ctx context.Context, query string, k int) (*mcp.CallToolResult, error) {
	resp, err := s.retriever.Retrieve(ctx, retriever.Request{
		Query:    query,
		K:        k,
		UseCache: true,
	})
	if err != nil {
		return nil, retrieveError(err)
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"ref":      r.Ref,
			"chunk_id": r.ChunkID,
			"source":   r.Source,
			"score":    r.Score,
			"content":  r.Content,
		})
	}

	response := map[string]interface{}{
		"mode":        "semantic",
		"results":     results,
		"duration_ms": resp.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) keywordSearch(ctx context.Context, query string, k int) (*mcp.CallToolResult, error) {
	start := time.Now()

	hits, err := s.storage.SearchText(ctx, query, k)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "keyword search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Hydrate hits from storage, dropping any chunk deleted since the FTS
	// index was queried. Refs are assigned after filtering so they stay dense.
	results := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		entry, err := s.storage.GetCorpusEntry(ctx, hit.ChunkID)
		if err != nil {
			continue
		}
		results = append(results, map[string]interface{}{
			"ref":      fmt.Sprintf("#%d", len(results)+1),
			"chunk_id": entry.ID,
			"source":   entry.Source,
			"score":    roundScore(hit.Score),
			"content":  entry.Content,
		})
	}

	response := map[string]interface{}{
		"mode":        "keyword",
		"results":     results,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation. The tool takes
// no parameters, so whatever the client sent as arguments is ignored.
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read corpus status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	lastIngested := "never"
	if !status.LastIngestedAt.IsZero() {
		lastIngested = status.LastIngestedAt.UTC().Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"corpus": map[string]interface{}{
			"documents":        status.DocumentsCount,
			"chunks":           status.ChunksCount,
			"embeddings":       status.EmbeddingsCount,
			"db_size_mb":       fmt.Sprintf("%.2f", status.DBSizeMB),
			"last_ingested_at": lastIngested,
		},
		"embedding": map[string]interface{}{
			"provider":  s.provider.Provider(),
			"model":     s.provider.Model(),
			"dimension": s.provider.Dimension(),
		},
		"generator": map[string]interface{}{
			"model": s.generator.Model(),
		},
		"retrieval": map[string]interface{}{
			"mode":      string(s.retriever.Mode()),
			"default_k": s.retriever.Config().DefaultK,
		},
		"build": map[string]interface{}{
			"sqlite_driver":    storage.DriverName,
			"build_mode":       storage.BuildMode,
			"vector_extension": storage.VectorExtensionAvailable,
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_index_ready":      status.Health.FTSIndexReady,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearCorpus handles the clear_corpus tool invocation
func (s *Server) handleClearCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	if !getBoolDefault(args, "confirm", false) {
		return nil, newMCPError(ErrorCodeInvalidParams, "confirm must be true to clear the corpus", map[string]interface{}{
			"param":  "confirm",
			"reason": "missing or false",
		})
	}

	if err := s.pipeline.Clear(ctx); err != nil {
		if errors.Is(err, ingest.ErrBusy) {
			return nil, newMCPError(ErrorCodeIngestBusy, "an ingestion is currently running", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to clear corpus", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.retriever.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"cleared": true,
	})), nil
}

// Helper functions

// ingestConfig merges per-request chunking overrides onto the server's
// ingest configuration. Overrides must be positive; a zero or negative
// override is rejected rather than silently replaced with a default.
func (s *Server) ingestConfig(args map[string]interface{}) (ingest.Config, error) {
	cfg := s.ingestCfg
	if _, present := args["chunk_size"]; present {
		size := getIntDefault(args, "chunk_size", 0)
		if size < 1 {
			return cfg, newMCPError(ErrorCodeInvalidParams, "chunk_size must be a positive integer", map[string]interface{}{
				"param": "chunk_size",
			})
		}
		cfg.ChunkSize = size
	}
	if _, present := args["chunk_overlap"]; present {
		overlap := getIntDefault(args, "chunk_overlap", 0)
		if overlap < 1 {
			return cfg, newMCPError(ErrorCodeInvalidParams, "chunk_overlap must be a positive integer", map[string]interface{}{
				"param": "chunk_overlap",
			})
		}
		cfg.ChunkOverlap = overlap
	}
	return cfg, nil
}

// ingestResponse formats a pipeline result for tool output
func ingestResponse(result *ingest.Result) map[string]interface{} {
	return map[string]interface{}{
		"document_id":    result.DocumentID,
		"source":         result.Source,
		"chunks_added":   result.ChunksAdded,
		"chunks_skipped": result.ChunksSkipped,
		"unchanged":      result.Unchanged,
		"duration_ms":    result.Duration.Milliseconds(),
	}
}

// ingestError maps pipeline and loader failures onto MCP error codes
func ingestError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrBusy):
		return newMCPError(ErrorCodeIngestBusy, "an ingestion is currently running", nil)
	case errors.Is(err, ingest.ErrNoContent), errors.Is(err, loader.ErrEmptyDocument):
		return newMCPError(ErrorCodeInvalidParams, "document contains no text", nil)
	case errors.Is(err, loader.ErrUnsupportedType):
		return newMCPError(ErrorCodeUnsupportedFile, "unsupported file type", map[string]interface{}{
			"supported": loader.SupportedExtensions(),
		})
	case errors.Is(err, loader.ErrFileTooLarge):
		return newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("file exceeds the %d MB ingestion limit", loader.MaxFileSize>>20), nil)
	default:
		return newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// retrieveError maps retriever failures onto MCP error codes
func retrieveError(err error) error {
	if errors.Is(err, retriever.ErrEmptyQuery) {
		return newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", nil)
	}
	return newMCPError(ErrorCodeInternalError, "retrieval failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateFilePath checks that a path is absolute and points at an
// existing regular file
func validateFilePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.Mode().IsRegular() {
		return ErrNotFile
	}

	return nil
}

// clampK bounds the requested result count to [MinK, MaxK]
func clampK(k int) int {
	if k < MinK {
		return MinK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// roundScore rounds a relevance score to 4 decimal places for display
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotFile         = errors.New("path is not a regular file")
)
