package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ragware/docrag-mcp/internal/embedder"
	"github.com/ragware/docrag-mcp/internal/generator"
	"github.com/ragware/docrag-mcp/internal/ingest"
	"github.com/ragware/docrag-mcp/internal/retriever"
	"github.com/ragware/docrag-mcp/internal/storage"
)

// probeDoc is a small operations handbook covering distinct topics, so the
// retrieval pass has several chunks to rank.
const probeDoc = `Deployment happens through the release train. Every merge to main produces a staging build, and a staging build is promoted to production once the smoke suite passes. Rollbacks reuse the previous production image and finish within minutes.

Database backups run nightly at 02:00 UTC. Backups are retained for thirty days, and a restore drill happens on the first Monday of each month to prove the archives are usable.

Incident response starts by paging the on-call engineer. The rotation changes every Monday morning, and handoff notes are posted in the operations channel before the previous shift ends.`

const probeQuery = "when do database backups run?"

func main() {
	fmt.Println("Probing the ingest and retrieval pipeline...")

	// In-memory corpus with the deterministic local embedder: no network,
	// no files, same vectors on every run.
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	provider, err := embedder.NewLocalProvider(embedder.NewCache(100))
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	pipe := ingest.New(store, provider, nil)

	ctx := context.Background()
	result, err := pipe.IngestText(ctx, "probe/handbook", "handbook", probeDoc, &ingest.Config{
		ChunkSize:    200,
		ChunkOverlap: 40,
	})
	if err != nil {
		log.Fatalf("Failed to ingest probe document: %v", err)
	}

	fmt.Printf("\nIngest Statistics:\n")
	fmt.Printf("  Source: %s\n", result.Source)
	fmt.Printf("  Chunks Added: %d\n", result.ChunksAdded)
	fmt.Printf("  Chunks Skipped: %d\n", result.ChunksSkipped)
	fmt.Printf("  Duration: %v\n", result.Duration)

	// Retrieve with the same provider the pipeline embedded with
	embed := retriever.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedText(ctx, provider, text)
	})
	retr := retriever.NewBruteForce(embed, store, retriever.DefaultConfig())

	resp, err := retr.Retrieve(ctx, retriever.Request{Query: probeQuery, K: 4})
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Printf("\nRetrieval (%s, pool %d, %v):\n", resp.Mode, resp.PoolSize, resp.Duration)
	for _, r := range resp.Results {
		fmt.Printf("  %s score=%.4f source=%s %q\n", r.Ref, r.Score, r.Source, preview(r.Content, 60))
	}

	answer, err := generator.NewExtractive().Answer(ctx, probeQuery, resp.Context)
	if err != nil {
		log.Fatalf("Failed to generate answer: %v", err)
	}
	fmt.Printf("\nAnswer Preview:\n  %s\n", preview(answer, 120))

	// Verify embeddings were stored
	status, err := store.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to read status: %v", err)
	}

	fmt.Printf("\nVerification:\n")
	fmt.Printf("  Documents in DB: %d\n", status.DocumentsCount)
	fmt.Printf("  Chunks in DB: %d\n", status.ChunksCount)
	fmt.Printf("  Embeddings in DB: %d\n", status.EmbeddingsCount)

	switch {
	case status.EmbeddingsCount == 0:
		fmt.Println("\n✗ FAILURE: No embeddings were stored!")
		os.Exit(1)
	case status.EmbeddingsCount != status.ChunksCount:
		fmt.Println("\n✗ FAILURE: Some chunks are missing embeddings!")
		os.Exit(1)
	case len(resp.Results) == 0:
		fmt.Println("\n✗ FAILURE: Retrieval returned no results!")
		os.Exit(1)
	default:
		fmt.Println("\n✓ SUCCESS: Ingest, retrieval, and answering all work!")
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
