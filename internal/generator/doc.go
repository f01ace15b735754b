// Package generator turns a question and a block of retrieved context into an
// answer.
//
// Two modes exist. When DOCRAG_LLM_HOST points at an OpenAI-compatible chat
// endpoint, Answer runs a single temperature-0 completion with a grounding
// system prompt; the model is instructed to cite the [#n] markers the
// retriever put in the context block. Without a host, Answer is extractive:
// it returns the retrieved passages themselves, so the whole server runs with
// no external services.
//
// In both modes an empty context block yields the fixed NoContextAnswer
// without a model call. Empty retrieval is a normal outcome, not an error,
// and its answer never varies.
//
// Usage:
//
//	gen, err := generator.NewFromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//	answer, err := gen.Answer(ctx, "What is the capital of Sweden?", contextBlock)
package generator
