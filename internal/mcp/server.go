package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ragware/docrag-mcp/internal/embedder"
	"github.com/ragware/docrag-mcp/internal/generator"
	"github.com/ragware/docrag-mcp/internal/ingest"
	"github.com/ragware/docrag-mcp/internal/retriever"
	"github.com/ragware/docrag-mcp/internal/storage"
	"github.com/ragware/docrag-mcp/internal/vectorindex"
	"github.com/ragware/docrag-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "docrag-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.docrag"
)

// Environment variables read at startup
const (
	// EnvDBPath overrides where the corpus database lives
	EnvDBPath = "DOCRAG_DB_PATH"
	// EnvIndexMode selects the candidate source: "index" routes retrieval
	// through the approximate pool-and-rerank path backed by storage's
	// vector search. Unset means brute-force over the full corpus.
	EnvIndexMode = "DOCRAG_INDEX_MODE"
	// EnvChunkSize overrides the default chunk size for all ingests
	EnvChunkSize = "DOCRAG_CHUNK_SIZE"
	// EnvChunkOverlap overrides the default chunk overlap for all ingests
	EnvChunkOverlap = "DOCRAG_CHUNK_OVERLAP"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	storage   storage.Storage
	provider  embedder.Embedder
	retriever *retriever.Retriever
	pipeline  *ingest.Pipeline
	generator *generator.Generator
	index     *vectorindex.Index // nil unless a Qdrant mirror is configured
	ingestCfg ingest.Config
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".docrag")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "docrag.db")

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Create embedder
	provider, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	// Create answer generator
	gen, err := generator.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	ingestCfg, err := ingestConfigFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// Queries and document chunks must share one vector space, so the
	// retriever embeds through the same provider the pipeline uses.
	embed := retriever.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedText(ctx, provider, text)
	})

	// Pick the candidate source. A configured Qdrant address wins; the
	// index mode env var routes through storage's vector search; the
	// default scans the full corpus.
	cfg := retriever.DefaultConfig()
	var (
		retr   *retriever.Retriever
		idx    *vectorindex.Index
		mirror ingest.Mirror
	)
	switch {
	case os.Getenv(vectorindex.EnvQdrantAddr) != "":
		idx, err = vectorindex.New(os.Getenv(vectorindex.EnvQdrantAddr), os.Getenv(vectorindex.EnvQdrantCollection))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to vector index: %w", err)
		}
		if err := idx.EnsureCollection(context.Background(), provider.Dimension()); err != nil {
			_ = idx.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to prepare vector index collection: %w", err)
		}
		retr = retriever.NewIndexed(embed, idx, store, cfg)
		mirror = idx
	case os.Getenv(EnvIndexMode) == "index":
		retr = retriever.NewIndexed(embed, storageIndex{store: store}, store, cfg)
	default:
		retr = retriever.NewBruteForce(embed, store, cfg)
	}

	// Create ingestion pipeline
	pipe := ingest.New(store, provider, mirror)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:       mcpServer,
		storage:   store,
		provider:  provider,
		retriever: retr,
		pipeline:  pipe,
		generator: gen,
		index:     idx,
		ingestCfg: ingestCfg,
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.provider.Close()
		if s.index != nil {
			_ = s.index.Close()
		}
		_ = s.storage.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Register ingest_text tool
	s.mcp.AddTool(ingestTextTool(), s.handleIngestText)

	// Register ingest_file tool
	s.mcp.AddTool(ingestFileTool(), s.handleIngestFile)

	// Register ask tool
	s.mcp.AddTool(askTool(), s.handleAsk)

	// Register search tool
	s.mcp.AddTool(searchTool(), s.handleSearch)

	// Register get_status tool
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	// Register clear_corpus tool
	s.mcp.AddTool(clearCorpusTool(), s.handleClearCorpus)

	return nil
}

// storageIndex adapts storage's vector search to the retriever's
// VectorQuerier, so indexed retrieval can run without an external index
type storageIndex struct {
	store storage.Storage
}

func (si storageIndex) Query(ctx context.Context, vector []float32, topK int) ([]types.VectorHit, error) {
	return si.store.SearchVector(ctx, vector, topK)
}

// ingestConfigFromEnv builds the server-wide ingest defaults from the
// environment. Invalid values fail startup instead of being ignored.
func ingestConfigFromEnv() (ingest.Config, error) {
	var cfg ingest.Config
	if v := os.Getenv(EnvChunkSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid %s %q: must be a positive integer", EnvChunkSize, v)
		}
		cfg.ChunkSize = n
	}
	if v := os.Getenv(EnvChunkOverlap); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid %s %q: must be a positive integer", EnvChunkOverlap, v)
		}
		cfg.ChunkOverlap = n
	}
	return cfg, nil
}
