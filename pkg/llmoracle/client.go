// Package llmoracle is the single LLM client abstraction shared by Stage A
// (entity/intent fallback), Stage AB (tie-break), Stage C (plan synthesis),
// and Stage D (response generation) — spec §9 Open Question: "the source
// corpus is inconsistent about whether Stage AB's LLM tie-break uses the
// same model as Stage C/D; treat this as implementation-configurable". A
// single Client, configured once from pkg/config.LLMProviderType, resolves
// that by construction: every stage shares it unless given a different one
// at wiring time.
package llmoracle

import "context"

// Message is one turn of a chat-style prompt.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Request is a single oracle call. It carries no schema: callers that need
// structured output check the final response text themselves with
// ValidateJSON — the provider itself is never trusted to honor a schema.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// StreamChunk is one token (or token group) of a streamed response. Done is
// set on the final chunk, which carries no further Text — the sentinel the
// consumer loop terminates on (spec §9: "a lazy, finite, non-restartable
// sequence of tokens terminated by a sentinel").
type StreamChunk struct {
	Text string
	Done bool
}

// Client is the oracle boundary every stage depends on instead of a
// concrete SDK type, so construction-time injection (spec §9: "global state
// → injected services") can swap providers or a test double without
// touching stage logic.
type Client interface {
	// Generate performs a single non-streaming call and returns the full
	// response text.
	Generate(ctx context.Context, req Request) (string, error)

	// GenerateStream performs a streaming call. The text channel closes
	// after the chunk with Done=true is sent; the error channel receives at
	// most one value and is closed immediately after, whether or not it
	// carried one. Callers must drain both to avoid leaking the goroutine
	// feeding them.
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error)
}
