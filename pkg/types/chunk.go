package types

import (
	"crypto/sha256"
	"errors"
	"time"
)

// Chunk represents one window of document text, the unit of embedding,
// storage, and retrieval. Chunks from the same document overlap so that
// sentences falling on a window boundary survive in at least one chunk.
type Chunk struct {
	// Identification
	ID         int64
	DocumentID int64
	Seq        int // 0-based position within the document

	// Content
	Content       string
	ContentHash   [32]byte // SHA-256 hash for deduplication
	TokenEstimate int

	// Metadata
	Meta map[string]string

	// Timestamps
	CreatedAt time.Time
}

// ValidateContent checks if the chunk content is valid.
func (c *Chunk) ValidateContent() error {
	if c.Content == "" {
		return ErrEmptyContent
	}

	if c.Seq < 0 {
		return errors.New("chunk sequence must be non-negative")
	}

	return nil
}

// ComputeTokenEstimate estimates the number of tokens in the chunk.
// Uses a simple heuristic: characters / 4.
func (c *Chunk) ComputeTokenEstimate() int {
	// Average English word is ~4 chars. Close enough for budgeting;
	// exact counts would need the provider's tokenizer.
	c.TokenEstimate = len(c.Content) / 4
	return c.TokenEstimate
}

// ComputeContentHash computes the SHA-256 hash of the chunk content.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// Validate performs comprehensive validation of the chunk.
func (c *Chunk) Validate() error {
	if err := c.ValidateContent(); err != nil {
		return err
	}

	if c.DocumentID == 0 {
		return errors.New("document ID is required")
	}

	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}
