package chunker

import (
	"crypto/sha256"
	"strings"

	"github.com/ragware/docrag-mcp/pkg/types"
)

const (
	// DefaultChunkSize is the sliding-window width in characters
	DefaultChunkSize = 800

	// DefaultOverlap is how many characters consecutive windows share
	DefaultOverlap = 120

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

// Chunker splits document text into overlapping fixed-size windows
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker with the default window geometry (800/120)
func New() *Chunker {
	return NewWithWindow(DefaultChunkSize, DefaultOverlap)
}

// NewWithWindow creates a Chunker with a custom window size and overlap.
// Non-positive sizes fall back to the default; negative overlaps become 0.
func NewWithWindow(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the configured window width in characters
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured window overlap in characters
func (c *Chunker) Overlap() int { return c.overlap }

// Split divides text into overlapping windows using the configured geometry
func (c *Chunker) Split(text string) []string {
	return Split(text, c.size, c.overlap)
}

// Split divides text into windows of at most size characters, each sharing
// overlap characters with its predecessor. Windows are whitespace-trimmed and
// windows that trim to nothing are dropped, though the cursor still advances.
// The cursor is forced forward even when overlap >= size, so Split terminates
// for every input. Empty or whitespace-only text yields an empty sequence.
//
// Sizes count runes, not bytes, so multi-byte characters are never split.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	chunks := make([]string, 0)

	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}

		window := strings.TrimSpace(string(runes[i:end]))
		if window != "" {
			chunks = append(chunks, window)
		}

		// The last window always touches the end of the text.
		if end == len(runes) {
			break
		}

		next := i + size - overlap
		if next < 0 {
			next = 0
		}
		if next <= i {
			// Pathological overlap (>= size) would stall the cursor.
			next = i + 1
		}
		i = next
	}

	return chunks
}

// ChunkText splits document text and wraps each window as a storage-ready
// chunk with its sequence number, content hash, and token estimate filled in.
func (c *Chunker) ChunkText(text string, documentID int64, meta map[string]string) []*types.Chunk {
	windows := c.Split(text)

	chunks := make([]*types.Chunk, 0, len(windows))
	for seq, window := range windows {
		chunk := &types.Chunk{
			DocumentID: documentID,
			Seq:        seq,
			Content:    window,
			Meta:       meta,
		}
		chunk.ComputeContentHash()
		chunk.ComputeTokenEstimate()
		chunks = append(chunks, chunk)
	}

	return chunks
}

// ComputeChunkHash computes the SHA-256 hash for a chunk's content
func ComputeChunkHash(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}
