package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ragware/docrag-mcp/internal/embedder"
	"github.com/ragware/docrag-mcp/internal/generator"
	"github.com/ragware/docrag-mcp/internal/ingest"
	"github.com/ragware/docrag-mcp/internal/retriever"
	"github.com/ragware/docrag-mcp/internal/storage"
	"github.com/ragware/docrag-mcp/pkg/types"
)

// Corpus documents, one topic each. The TopicEmbedder keys on the words
// deploy, backup, and incident, so ranking for topical queries is exact.
const (
	deployDoc   = "Deployment happens through the release train. Every merge to main produces a staging build, and a staging build is promoted to production once the smoke suite passes."
	backupDoc   = "Database backups run nightly at 02:00 UTC. Backups are retained for thirty days, and a restore drill happens on the first Monday of each month."
	incidentDoc = "Incident response starts by paging the on-call engineer. The rotation changes every Monday morning, and handoff notes are posted before the shift ends."
)

// RAGTestSuite drives the full retrieval path end to end: ingest into
// SQLite, retrieve, and generate a grounded answer.
type RAGTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *storage.SQLiteStorage
	provider *TopicEmbedder
	pipeline *ingest.Pipeline
	retr     *retriever.Retriever
	gen      *generator.Generator
}

// SetupTest builds a fresh stack against a file-backed database
func (s *RAGTestSuite) SetupTest() {
	s.ctx = context.Background()

	dbPath := filepath.Join(s.T().TempDir(), "rag_test.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	s.Require().NoError(err)
	s.store = store

	s.provider = NewTopicEmbedder(16, "deploy", "backup", "incident")
	s.pipeline = ingest.New(store, s.provider, nil)
	s.retr = retriever.NewBruteForce(s.embedFunc(), store, retriever.DefaultConfig())
	s.gen = generator.NewExtractive()
}

// TearDownTest runs after each test
func (s *RAGTestSuite) TearDownTest() {
	_ = s.store.Close()
}

// TestIngestRetrieveAnswer tests the complete question-answering workflow
func (s *RAGTestSuite) TestIngestRetrieveAnswer() {
	s.seedCorpus()

	question := "how do database backups work?"
	resp, err := s.retr.Retrieve(s.ctx, retriever.Request{Query: question, K: 2})
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 2)
	s.Equal(retriever.ModeBruteForce, resp.Mode)
	s.T().Logf("✓ Retrieved %d of %d candidates in %v", len(resp.Results), resp.PoolSize, resp.Duration)

	// The backup document must rank first for a backup question
	top := resp.Results[0]
	s.Equal("#1", top.Ref)
	s.Equal("ops/backups.md", top.Source)
	s.Greater(top.Score, resp.Results[1].Score)
	s.Contains(top.Content, "02:00")

	// The grounding context carries the ranked chunks in ref order
	s.True(strings.HasPrefix(resp.Context, "[#1] "), "context starts with the top ref")
	s.Contains(resp.Context, "[#2] ")

	answer, err := s.gen.Answer(s.ctx, question, resp.Context)
	s.Require().NoError(err)
	s.Contains(answer, "[#1]")
	s.Contains(answer, "nightly")
	s.T().Log("✓ Answer grounded in retrieved chunks")
}

// TestDocumentUpdateReplacesChunks tests that re-ingesting changed content
// makes the new text retrievable and the old text gone
func (s *RAGTestSuite) TestDocumentUpdateReplacesChunks() {
	_, err := s.pipeline.IngestText(s.ctx, "ops/backups.md", "", backupDoc, nil)
	s.Require().NoError(err)

	resp, err := s.retr.Retrieve(s.ctx, retriever.Request{Query: "backup schedule", K: 1})
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 1)
	s.Contains(resp.Results[0].Content, "nightly")

	// Same source, new content
	updated := "Database backups now run hourly, and each backup is replicated to a second region before it counts as complete."
	result, err := s.pipeline.IngestText(s.ctx, "ops/backups.md", "", updated, nil)
	s.Require().NoError(err)
	s.False(result.Unchanged)
	s.T().Logf("✓ Re-ingest replaced chunks: %d added", result.ChunksAdded)

	resp, err = s.retr.Retrieve(s.ctx, retriever.Request{Query: "backup schedule", K: 1})
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 1)
	s.Contains(resp.Results[0].Content, "hourly")
	s.NotContains(resp.Results[0].Content, "nightly")

	status, err := s.store.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, status.DocumentsCount)
	s.Equal(1, status.ChunksCount)
	s.T().Log("✓ Old chunks are gone from the corpus")
}

// TestRetrievalModesAgreeOnTopHit tests that brute-force and indexed
// retrieval rank the same chunk first
func (s *RAGTestSuite) TestRetrievalModesAgreeOnTopHit() {
	s.seedCorpus()

	indexed := retriever.NewIndexed(s.embedFunc(), storageQuerier{store: s.store}, s.store, retriever.DefaultConfig())

	query := "incident paging rotation"
	bf, err := s.retr.Retrieve(s.ctx, retriever.Request{Query: query, K: 1})
	s.Require().NoError(err)
	s.Require().Len(bf.Results, 1)

	ix, err := indexed.Retrieve(s.ctx, retriever.Request{Query: query, K: 1})
	s.Require().NoError(err)
	s.Require().Len(ix.Results, 1)
	s.Equal(retriever.ModeIndexed, ix.Mode)

	s.Equal(bf.Results[0].ChunkID, ix.Results[0].ChunkID)
	s.Equal("ops/incidents.md", ix.Results[0].Source)

	// The candidate pool covers the whole corpus when it is smaller than
	// the pool floor
	s.Equal(3, ix.PoolSize)
	s.T().Logf("✓ Both modes rank chunk %d first", bf.Results[0].ChunkID)
}

// TestEmptyCorpusProducesNoContext tests the no-context path end to end
func (s *RAGTestSuite) TestEmptyCorpusProducesNoContext() {
	question := "anything about backups?"
	resp, err := s.retr.Retrieve(s.ctx, retriever.Request{Query: question, K: 4})
	s.Require().NoError(err)
	s.Empty(resp.Results)
	s.Empty(resp.Context)

	answer, err := s.gen.Answer(s.ctx, question, resp.Context)
	s.Require().NoError(err)
	s.Equal(generator.NoContextAnswer, answer)
	s.T().Log("✓ Empty corpus yields the fixed notice, no fabricated context")
}

// TestCacheServesAndInvalidates tests response caching across ingests
func (s *RAGTestSuite) TestCacheServesAndInvalidates() {
	s.seedCorpus()

	req := retriever.Request{Query: "backup retention", K: 8, UseCache: true}

	first, err := s.retr.Retrieve(s.ctx, req)
	s.Require().NoError(err)
	s.False(first.CacheHit)
	s.Len(first.Results, 3)

	second, err := s.retr.Retrieve(s.ctx, req)
	s.Require().NoError(err)
	s.True(second.CacheHit, "identical request should be served from cache")

	_, err = s.pipeline.IngestText(s.ctx, "ops/oncall.md",
		"", "The on-call handbook lists escalation contacts for every service tier.", nil)
	s.Require().NoError(err)
	s.retr.InvalidateCache()

	third, err := s.retr.Retrieve(s.ctx, req)
	s.Require().NoError(err)
	s.False(third.CacheHit)
	s.Len(third.Results, 4, "refreshed retrieval sees the new document")
	s.T().Log("✓ Cache serves repeats and drops entries on invalidation")
}

// TestKeywordSearchHydration tests the FTS path against the same corpus
func (s *RAGTestSuite) TestKeywordSearchHydration() {
	s.seedCorpus()

	hits, err := s.store.SearchText(s.ctx, "restore drill", 4)
	s.Require().NoError(err)
	s.Require().NotEmpty(hits)

	entry, err := s.store.GetCorpusEntry(s.ctx, hits[0].ChunkID)
	s.Require().NoError(err)
	s.Equal("ops/backups.md", entry.Source)
	s.Contains(entry.Content, "restore drill")
	s.T().Log("✓ Keyword hit hydrates to the stored chunk")
}

// TestClearCorpusResetsEverything tests corpus teardown
func (s *RAGTestSuite) TestClearCorpusResetsEverything() {
	s.seedCorpus()
	s.Require().NoError(s.pipeline.Clear(s.ctx))

	status, err := s.store.Status(s.ctx)
	s.Require().NoError(err)
	s.Zero(status.DocumentsCount)
	s.Zero(status.ChunksCount)
	s.Zero(status.EmbeddingsCount)

	resp, err := s.retr.Retrieve(s.ctx, retriever.Request{Query: "backups", K: 4})
	s.Require().NoError(err)
	s.Empty(resp.Results)
	s.T().Log("✓ Clear removed documents, chunks, and embeddings")
}

// TestSharedVectorSpace tests that query embedding goes through the same
// provider the pipeline embedded chunks with
func (s *RAGTestSuite) TestSharedVectorSpace() {
	s.seedCorpus()

	// Embedding the stored chunk text as a query must score ~1.0 against
	// its own stored vector
	resp, err := s.retr.Retrieve(s.ctx, retriever.Request{Query: backupDoc, K: 1})
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 1)
	s.Equal("ops/backups.md", resp.Results[0].Source)
	s.InDelta(1.0, resp.Results[0].Score, 0.001)
}

// Helper methods

// seedCorpus ingests the three topic documents
func (s *RAGTestSuite) seedCorpus() {
	docs := []struct {
		source string
		text   string
	}{
		{"ops/deploys.md", deployDoc},
		{"ops/backups.md", backupDoc},
		{"ops/incidents.md", incidentDoc},
	}
	for _, doc := range docs {
		result, err := s.pipeline.IngestText(s.ctx, doc.source, "", doc.text, nil)
		s.Require().NoError(err, fmt.Sprintf("ingest %s", doc.source))
		s.Require().Equal(1, result.ChunksAdded, "each seed document is one chunk")
	}
}

// embedFunc routes query embedding through the suite's provider
func (s *RAGTestSuite) embedFunc() retriever.EmbedderFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedText(ctx, s.provider, text)
	}
}

// storageQuerier adapts storage's vector search to the retriever's
// candidate-pool interface
type storageQuerier struct {
	store *storage.SQLiteStorage
}

func (q storageQuerier) Query(ctx context.Context, vector []float32, topK int) ([]types.VectorHit, error) {
	return q.store.SearchVector(ctx, vector, topK)
}

// TestRAGTestSuite runs the suite
func TestRAGTestSuite(t *testing.T) {
	suite.Run(t, new(RAGTestSuite))
}
