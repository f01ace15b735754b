package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/ragware/docrag-mcp/internal/embedder"
)

// TopicEmbedder provides a fake embedder for testing. Each topic keyword
// owns one vector axis; a text is embedded as the sum of the axes whose
// keyword it mentions, plus a small hash-derived component so distinct
// texts never collide. Retrieval order is therefore predictable: a query
// mentioning "backup" ranks backup chunks first.
type TopicEmbedder struct {
	dimension int
	topics    []string
	provider  string
	model     string
}

// NewTopicEmbedder creates a mock embedder with one axis per topic.
// The dimension must exceed the topic count so hash noise has room.
func NewTopicEmbedder(dimension int, topics ...string) *TopicEmbedder {
	if dimension <= len(topics) {
		dimension = len(topics) + 8
	}
	return &TopicEmbedder{
		dimension: dimension,
		topics:    topics,
		provider:  "mock",
		model:     "topic-v1",
	}
}

// GenerateEmbedding generates a deterministic fake embedding
func (m *TopicEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if req.Text == "" {
		return nil, embedder.ErrEmptyText
	}

	vector := make([]float32, m.dimension)

	// Topic axes dominate the vector
	lower := strings.ToLower(req.Text)
	for i, topic := range m.topics {
		if strings.Contains(lower, topic) {
			vector[i] = 1.0
		}
	}

	// Hash noise in the remaining dimensions keeps distinct texts apart
	// without disturbing topic order
	hash := sha256.Sum256([]byte(req.Text))
	for i := len(m.topics); i < m.dimension; i++ {
		idx := (i * 4) % 28
		val := binary.BigEndian.Uint32(hash[idx : idx+4])
		vector[i] = ((float32(val)/float32(1<<32))*2 - 1) * 0.01
	}

	// Normalize to unit length
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		inv := float32(1.0 / math.Sqrt(sum))
		for i := range vector {
			vector[i] *= inv
		}
	}

	return &embedder.Embedding{
		Vector:    vector,
		Dimension: m.dimension,
		Provider:  m.provider,
		Model:     m.model,
		Hash:      embedder.ComputeHash(req.Text),
	}, nil
}

// GenerateBatch generates embeddings for multiple texts
func (m *TopicEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if len(req.Texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}

	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   m.provider,
		Model:      m.model,
	}, nil
}

// Dimension returns the embedding dimension
func (m *TopicEmbedder) Dimension() int {
	return m.dimension
}

// Provider returns the provider name
func (m *TopicEmbedder) Provider() string {
	return m.provider
}

// Model returns the model name
func (m *TopicEmbedder) Model() string {
	return m.model
}

// Close releases resources (no-op for mock)
func (m *TopicEmbedder) Close() error {
	return nil
}
