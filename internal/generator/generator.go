package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// Environment variables
	EnvLLMHost  = "DOCRAG_LLM_HOST"
	EnvLLMModel = "DOCRAG_LLM_MODEL"

	// DefaultModel is used when a host is configured without a model name
	DefaultModel = "llama3.2"

	// MaxAnswerTokens caps completion length for grounded answers
	MaxAnswerTokens = 1024

	// ModeExtractive is reported by Model() when no chat model is configured
	ModeExtractive = "extractive"
)

// NoContextAnswer is the fixed response for questions the corpus has nothing
// relevant for. It is returned without calling the model, so an empty
// retrieval result always produces the same answer.
const NoContextAnswer = "I could not find anything relevant to that question in the ingested documents. Ingest more material or try rephrasing."

// systemPrompt grounds the model in retrieved chunks. The [#n] markers match
// the refs produced by the retriever's context formatting.
const systemPrompt = `You answer questions about a user's ingested documents.
Use ONLY the provided context. Cite the [#n] marker of every chunk you draw
from. If the context does not contain the answer, say you do not know instead
of inventing one.`

var (
	// ErrNoHost is returned when New is called without an endpoint
	ErrNoHost = errors.New("no LLM host configured")
	// ErrEmptyCompletion is returned when the model responds with no usable text
	ErrEmptyCompletion = errors.New("model returned an empty completion")
)

// Generator produces answers grounded in retrieved context. With a chat model
// configured it runs one completion per question; without one it degrades to
// extractive answers assembled from the context block, so the server stays
// usable with no external services at all.
type Generator struct {
	model llms.Model // nil in extractive mode
	name  string
}

// New creates a Generator backed by an OpenAI-compatible chat endpoint
// (Ollama, LM Studio, vLLM, llamafile).
func New(host, model string) (*Generator, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoHost, EnvLLMHost)
	}
	if model == "" {
		model = DefaultModel
	}

	// Local inference servers accept any token; langchaingo requires one.
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client for %s: %w", host, err)
	}

	return &Generator{model: client, name: model}, nil
}

// NewExtractive creates a Generator that answers by quoting retrieved chunks
// verbatim, with no model behind it.
func NewExtractive() *Generator {
	return &Generator{}
}

// NewWithModel creates a Generator around an existing model client
func NewWithModel(model llms.Model, name string) *Generator {
	return &Generator{model: model, name: name}
}

// NewFromEnv builds a Generator from DOCRAG_LLM_HOST and DOCRAG_LLM_MODEL,
// falling back to extractive mode when no host is configured.
func NewFromEnv() (*Generator, error) {
	host := os.Getenv(EnvLLMHost)
	if host == "" {
		return NewExtractive(), nil
	}
	return New(host, os.Getenv(EnvLLMModel))
}

// Model reports the configured model name, or ModeExtractive
func (g *Generator) Model() string {
	if g.model == nil {
		return ModeExtractive
	}
	return g.name
}

// Answer produces a grounded answer for the question. An empty context block
// short-circuits to NoContextAnswer without touching the model, so the
// no-relevant-context outcome is deterministic in every mode.
func (g *Generator) Answer(ctx context.Context, question, contextBlock string) (string, error) {
	if strings.TrimSpace(contextBlock) == "" {
		return NoContextAnswer, nil
	}

	if g.model == nil {
		return extractiveAnswer(contextBlock), nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt(question, contextBlock))},
		},
	}

	// Temperature 0 keeps answers reproducible for identical retrievals
	resp, err := g.model.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(MaxAnswerTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	answer := strings.TrimSpace(resp.Choices[0].Content)
	if answer == "" {
		return "", ErrEmptyCompletion
	}
	return answer, nil
}

// userPrompt assembles the single human message: context first, question last,
// so the question sits closest to the completion.
func userPrompt(question, contextBlock string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

// extractiveAnswer presents the retrieved chunks directly. No synthesis
// happens, so nothing can be fabricated.
func extractiveAnswer(contextBlock string) string {
	return "Most relevant passages from the ingested documents:\n\n" + contextBlock
}
