package types

import (
	"errors"
	"time"
)

// Document represents one ingested source: a file on disk, a pasted string,
// or any other caller-labeled body of text. A document owns the chunks
// produced from it.
type Document struct {
	// Identification
	ID     int64
	Source string // file path, URL, or caller-supplied label
	Title  string

	// Content fingerprint
	ContentHash [32]byte // SHA-256 of the full original text
	SizeBytes   int64

	// Derived
	ChunkCount int

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the document is valid for storage.
func (d *Document) Validate() error {
	if d.Source == "" {
		return errors.New("document source is required")
	}

	if d.SizeBytes < 0 {
		return errors.New("size must be non-negative")
	}

	var zeroHash [32]byte
	if d.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}
