package embedder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompatProvider implements Embedder against any OpenAI-compatible
// embeddings endpoint (Ollama, LM Studio, vLLM, llamafile). The model is
// bound to the client at construction time, so per-request model overrides
// are rejected rather than silently ignored.
type CompatProvider struct {
	host      string
	model     string
	dimension int
	embedder  *embeddings.EmbedderImpl
	cache     *Cache
}

// NewCompatProvider creates an embedder backed by an OpenAI-compatible host.
// host must point at the server base URL (e.g. http://localhost:11434/v1).
func NewCompatProvider(host, model string, cache *Cache) (*CompatProvider, error) {
	if host == "" {
		host = os.Getenv(EnvEmbeddingHost)
	}
	if host == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvEmbeddingHost)
	}
	if model == "" {
		model = DefaultCompatModel
	}

	// Local inference servers accept any token; langchaingo requires one.
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create client for %s: %v", ErrProviderFailed, host, err)
	}

	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("%w: create embedder: %v", ErrProviderFailed, err)
	}

	return &CompatProvider{
		host:      strings.TrimRight(host, "/"),
		model:     model,
		dimension: CompatDimension,
		embedder:  emb,
		cache:     cache,
	}, nil
}

func (c *CompatProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	// Check cache
	hash := ComputeHash(req.Text)
	if c.cache != nil {
		if emb, ok := c.cache.Get(hash); ok {
			return emb, nil
		}
	}

	// Use the batch path for consistency
	resp, err := c.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}

	return resp.Embeddings[0], nil
}

func (c *CompatProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	if req.Model != "" && req.Model != c.model {
		return nil, fmt.Errorf("%w: provider is bound to %q, cannot embed with %q", ErrUnsupportedModel, c.model, req.Model)
	}

	config := DefaultRetryConfig()
	vectors, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
		return c.embedder.EmbedDocuments(ctx, req.Texts)
	})

	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	if len(vectors) != len(req.Texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrProviderFailed, len(vectors), len(req.Texts))
	}

	embs := make([]*Embedding, len(vectors))
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector for text %d", ErrProviderFailed, i)
		}
		hash := ComputeHash(req.Texts[i])
		embs[i] = &Embedding{
			Vector:    vec,
			Dimension: len(vec),
			Provider:  ProviderCompat,
			Model:     c.model,
			Hash:      hash,
		}
		if c.cache != nil {
			c.cache.Set(hash, embs[i])
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embs,
		Provider:   ProviderCompat,
		Model:      c.model,
	}, nil
}

func (c *CompatProvider) Dimension() int {
	return c.dimension
}

func (c *CompatProvider) Provider() string {
	return ProviderCompat
}

func (c *CompatProvider) Model() string {
	return c.model
}

// Host returns the configured endpoint base URL.
func (c *CompatProvider) Host() string {
	return c.host
}

func (c *CompatProvider) Close() error {
	return nil
}
