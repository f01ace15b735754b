package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/ragware/docrag-mcp/internal/embedder"
	"github.com/ragware/docrag-mcp/internal/ingest"
	"github.com/ragware/docrag-mcp/internal/retriever"
	"github.com/ragware/docrag-mcp/internal/storage"
)

// setupRetrievalBenchmark ingests a synthetic corpus for retrieval benchmarks
func setupRetrievalBenchmark(b *testing.B, docs int) (*storage.SQLiteStorage, *retriever.Retriever) {
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}

	provider := NewTopicEmbedder(16, "deploy", "backup", "incident")
	pipe := ingest.New(store, provider, nil)

	ctx := context.Background()
	topics := []string{"deploy", "backup", "incident"}
	for i := 0; i < docs; i++ {
		text := fmt.Sprintf("Document %d covers the %s runbook. It lists the owners, the escalation policy, and the weekly checks for that area.", i, topics[i%3])
		if _, err := pipe.IngestText(ctx, fmt.Sprintf("bench/doc-%d", i), "", text, nil); err != nil {
			store.Close()
			b.Fatal(err)
		}
	}

	embed := retriever.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedText(ctx, provider, text)
	})

	return store, retriever.NewBruteForce(embed, store, retriever.DefaultConfig())
}

// BenchmarkBruteForceRetrieve benchmarks full-corpus ranking
func BenchmarkBruteForceRetrieve(b *testing.B) {
	store, retr := setupRetrievalBenchmark(b, 200)
	defer store.Close()

	req := retriever.Request{Query: "backup retention and drills", K: 4}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := retr.Retrieve(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCachedRetrieve benchmarks the response-cache fast path
func BenchmarkCachedRetrieve(b *testing.B) {
	store, retr := setupRetrievalBenchmark(b, 200)
	defer store.Close()

	req := retriever.Request{Query: "backup retention and drills", K: 4, UseCache: true}
	if _, err := retr.Retrieve(context.Background(), req); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := retr.Retrieve(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIngestText benchmarks repeated single-document ingestion
func BenchmarkIngestText(b *testing.B) {
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	provider := NewTopicEmbedder(16, "deploy", "backup", "incident")
	pipe := ingest.New(store, provider, nil)
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		text := fmt.Sprintf("Revision %d of the backup runbook. Backups run nightly, and the restore drill happens monthly.", i)
		if _, err := pipe.IngestText(ctx, "bench/runbook.md", "", text, nil); err != nil {
			b.Fatal(err)
		}
	}
}
