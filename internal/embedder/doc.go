// Package embedder generates vector embeddings for document chunks and
// queries using various providers.
//
// The embedder supports hosted APIs (Jina AI, OpenAI), OpenAI-compatible
// local servers (Ollama, LM Studio, vLLM), and an offline hash-based
// fallback. All providers share batching, caching, and retry handling.
//
// # Basic Usage
//
//	// Create embedder (auto-detects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	// Generate single embedding
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "Stockholm is the capital of Sweden.",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// Ingestion embeds many chunks at once; use the batch path:
//
//	texts := make([]string, len(chunks))
//	for i, c := range chunks {
//	    texts[i] = c.Content
//	}
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
//	for i, embedding := range resp.Embeddings {
//	    // Store embedding for chunk i
//	}
//
// Batching reduces API calls and improves throughput significantly for
// hosted providers.
//
// # Provider Selection
//
// The embedder selects a provider based on environment variables:
//
//  1. If DOCRAG_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if JINA_API_KEY is set → use Jina AI
//  3. Else if OPENAI_API_KEY is set → use OpenAI
//  4. Else if DOCRAG_EMBEDDING_HOST is set → use the compat provider
//  5. Else → fallback to local provider (offline mode)
//
// Provider configuration:
//
//	// OpenAI-compatible local server (Ollama shown)
//	os.Setenv("DOCRAG_EMBEDDING_PROVIDER", "compat")
//	os.Setenv("DOCRAG_EMBEDDING_HOST", "http://localhost:11434/v1")
//	os.Setenv("DOCRAG_EMBEDDING_MODEL", "nomic-embed-text")
//
//	// Or use the factory directly
//	emb, err := embedder.New(embedder.Config{
//	    Provider: "compat",
//	    Host:     "http://localhost:11434/v1",
//	    Model:    "nomic-embed-text",
//	})
//
// # Provider Comparison
//
// Jina AI:
//   - Dimensions: 1024
//   - Quality: Excellent
//   - Cost: Free tier available
//
// OpenAI:
//   - Dimensions: 1536
//   - Quality: Excellent (general purpose)
//   - Cost: Pay per token
//
// Compat (self-hosted):
//   - Dimensions: model-dependent (768 for nomic-embed-text)
//   - Quality: Good to excellent depending on model
//   - Cost: Free (your hardware)
//
// Local (offline hash):
//   - Dimensions: 384
//   - Quality: Deterministic only, no semantics
//   - Cost: Free; intended for tests and development
//
// # Caching
//
// The embedder includes an in-memory LRU cache keyed by content hash, so
// re-ingesting unchanged documents never re-embeds their chunks:
//
//	cache := embedder.NewCache(10000) // cache 10k embeddings
//
//	hash := embedder.ComputeHash(text)
//	if emb, ok := cache.Get(hash); ok {
//	    return emb // cache hit
//	}
//
// # Error Handling
//
// Transient failures are retried with exponential backoff before
// surfacing:
//
//	resp, err := emb.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // Provider unavailable after retries
//	}
//
// Query embedding failures are fatal to a retrieval request; there is no
// silent fallback between providers at request time.
package embedder
